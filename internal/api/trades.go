package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/model"
	"github.com/tradesenseai/challenge-platform/internal/trade"
)

type openTradeRequest struct {
	AccountID string  `json:"account_id"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
}

func (h *Handler) HandleOpenTrade(w http.ResponseWriter, r *http.Request) {
	var req openTradeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.AccountID == "" || req.Symbol == "" || req.Quantity <= 0 {
		h.respondError(w, http.StatusBadRequest, "account_id, symbol and positive quantity are required")
		return
	}
	side := model.TradeSide(req.Side)
	if side != model.Buy && side != model.Sell {
		h.respondError(w, http.StatusBadRequest, "side must be BUY or SELL")
		return
	}

	report, err := h.trades.Open(r.Context(), userID(r), trade.OpenRequest{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Side:      side,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.respondTradeError(w, err, "can't open trade")
		return
	}

	h.respondJSON(w, http.StatusCreated, report)
}

func (h *Handler) HandleCloseTrade(w http.ResponseWriter, r *http.Request) {
	report, err := h.trades.Close(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		h.respondTradeError(w, err, "can't close trade")
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) respondTradeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, trade.ErrTradeNotFound):
		h.respondError(w, http.StatusNotFound, "trade not found")
	case errors.Is(err, trade.ErrAccountNotTradable):
		h.respondError(w, http.StatusConflict, "account is not tradable")
	case errors.Is(err, trade.ErrTradeAlreadyClosed):
		h.respondError(w, http.StatusConflict, "trade already closed")
	default:
		h.logger.Errorf("%s: %s", err, fallback)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}
