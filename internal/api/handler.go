package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tradesenseai/challenge-platform/internal/auth"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
	"github.com/tradesenseai/challenge-platform/internal/trade"
)

type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

type Accounts interface {
	Create(ctx context.Context, userID string, initialBalance float64) (model.Account, error)
	GetByID(ctx context.Context, id string) (model.Account, error)
	ListByUser(ctx context.Context, userID string) ([]model.Account, error)
}

type TradeService interface {
	Open(ctx context.Context, userID string, req trade.OpenRequest) (trade.Report, error)
	Close(ctx context.Context, userID, tradeID string) (trade.Report, error)
}

type TradeHistory interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]model.Trade, error)
}

type Leaderboard interface {
	Top() ([]model.LeaderboardEntry, time.Time)
}

type Handler struct {
	users       Users
	accounts    Accounts
	trades      TradeService
	history     TradeHistory
	leaderboard Leaderboard
	authService *auth.Service
	logger      logger.Logger
}

func New(
	users Users,
	accounts Accounts,
	trades TradeService,
	history TradeHistory,
	leaderboard Leaderboard,
	authService *auth.Service,
	logger logger.Logger,
) *Handler {
	return &Handler{
		users:       users,
		accounts:    accounts,
		trades:      trades,
		history:     history,
		leaderboard: leaderboard,
		authService: authService,
		logger:      logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	body, err := sonic.Marshal(data)
	if err != nil {
		h.logger.Errorf("%s: can't marshal response", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		h.logger.Errorf("%s: can't write response", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, errorResponse{Error: message})
}

func (h *Handler) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, dst)
}
