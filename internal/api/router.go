package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tradesenseai/challenge-platform/internal/model"
)

func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/register", h.HandleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/leaderboard", h.HandleLeaderboard).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.authMiddleware)

	api.HandleFunc("/accounts", h.HandleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts", h.HandleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", h.HandleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/trades", h.HandleListAccountTrades).Methods(http.MethodGet)

	api.HandleFunc("/trades", h.HandleOpenTrade).Methods(http.MethodPost)
	api.HandleFunc("/trades/{id}/close", h.HandleCloseTrade).Methods(http.MethodPost)

	return r
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type leaderboardResponse struct {
	Entries     []model.LeaderboardEntry `json:"entries"`
	RefreshedAt time.Time                `json:"refreshed_at"`
}

func (h *Handler) HandleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	entries, refreshedAt := h.leaderboard.Top()
	h.respondJSON(w, http.StatusOK, leaderboardResponse{
		Entries:     entries,
		RefreshedAt: refreshedAt,
	})
}
