package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/model"
	"github.com/tradesenseai/challenge-platform/internal/tools"
)

type createAccountRequest struct {
	InitialBalance float64 `json:"initial_balance"`
}

type accountView struct {
	ID             string                `json:"id"`
	InitialBalance float64               `json:"initial_balance"`
	Equity         float64               `json:"equity"`
	DailyPnl       float64               `json:"daily_pnl"`
	TotalPnl       float64               `json:"total_pnl"`
	Status         model.ChallengeStatus `json:"status"`
	Reason         string                `json:"reason,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

func toAccountView(acc model.Account) accountView {
	return accountView{
		ID:             acc.ID,
		InitialBalance: acc.InitialBalance,
		Equity:         tools.RoundMoney(acc.Equity),
		DailyPnl:       tools.RoundMoney(acc.DailyPnl()),
		TotalPnl:       tools.RoundMoney(acc.TotalPnl()),
		Status:         acc.Status,
		Reason:         acc.ReasonText(),
		CreatedAt:      acc.CreatedAt,
	}
}

const (
	_minInitialBalance = 1000.0
	_maxInitialBalance = 500000.0
)

func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.InitialBalance < _minInitialBalance || req.InitialBalance > _maxInitialBalance {
		h.respondError(w, http.StatusBadRequest, "initial balance out of range")
		return
	}

	acc, err := h.accounts.Create(r.Context(), userID(r), req.InitialBalance)
	if err != nil {
		h.logger.Errorf("%s: can't create account", err)
		h.respondError(w, http.StatusInternalServerError, "can't open challenge")
		return
	}

	h.respondJSON(w, http.StatusCreated, toAccountView(acc))
}

func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListByUser(r.Context(), userID(r))
	if err != nil {
		h.logger.Errorf("%s: can't list accounts", err)
		h.respondError(w, http.StatusInternalServerError, "can't list accounts")
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, toAccountView(acc))
	}
	h.respondJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, toAccountView(acc))
}

func (h *Handler) HandleListAccountTrades(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedAccount(w, r); !ok {
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(r, "offset", 0)

	trades, err := h.history.ListByAccount(r.Context(), mux.Vars(r)["id"], limit, offset)
	if err != nil {
		h.logger.Errorf("%s: can't list trades", err)
		h.respondError(w, http.StatusInternalServerError, "can't list trades")
		return
	}

	h.respondJSON(w, http.StatusOK, trades)
}

// ownedAccount loads the path account and enforces ownership, writing the
// error response itself when the lookup fails.
func (h *Handler) ownedAccount(w http.ResponseWriter, r *http.Request) (model.Account, bool) {
	acc, err := h.accounts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "account not found")
			return model.Account{}, false
		}
		h.logger.Errorf("%s: can't load account", err)
		h.respondError(w, http.StatusInternalServerError, "can't load account")
		return model.Account{}, false
	}

	if acc.UserID != userID(r) {
		h.respondError(w, http.StatusNotFound, "account not found")
		return model.Account{}, false
	}

	return acc, true
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
