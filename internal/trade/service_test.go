package trade

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/challenge"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
)

type nopLogger struct{}

func (nopLogger) With(...interface{}) logger.Logger { return nopLogger{} }
func (nopLogger) Debugf(string, ...interface{})     {}
func (nopLogger) Infof(string, ...interface{})      {}
func (nopLogger) Warnf(string, ...interface{})      {}
func (nopLogger) Errorf(string, ...interface{})     {}
func (nopLogger) Fatalf(string, ...interface{})     {}
func (nopLogger) Sync() error                       { return nil }

// memStore backs both the trade service and the real rule engine in these
// tests, standing in for the sqlx stores.
type memStore struct {
	accounts map[string]model.Account
	trades   map[string]model.Trade
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]model.Account),
		trades:   make(map[string]model.Trade),
	}
}

func (m *memStore) GetByID(_ context.Context, id string) (model.Account, error) {
	acc, ok := m.accounts[id]
	if !ok {
		return model.Account{}, account.ErrNotFound
	}
	return acc, nil
}

func (m *memStore) SetEquity(_ context.Context, id string, equity float64) error {
	acc, ok := m.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.Equity = equity
	m.accounts[id] = acc
	return nil
}

func (m *memStore) SaveDailyReset(_ context.Context, id string, dailyStartingEquity float64, resetOn time.Time) error {
	acc := m.accounts[id]
	acc.DailyStartingEquity = dailyStartingEquity
	acc.LastDailyReset = sql.NullTime{Time: resetOn, Valid: true}
	m.accounts[id] = acc
	return nil
}

func (m *memStore) SaveStatus(_ context.Context, id string, status model.ChallengeStatus, reason string) error {
	acc := m.accounts[id]
	acc.Status = status
	acc.Reason = sql.NullString{String: reason, Valid: true}
	m.accounts[id] = acc
	return nil
}

type tradeStore struct{ m *memStore }

func (t tradeStore) GetByID(_ context.Context, id string) (model.Trade, error) {
	tr, ok := t.m.trades[id]
	if !ok {
		return model.Trade{}, ErrTradeNotFound
	}
	return tr, nil
}

func (t tradeStore) Insert(_ context.Context, tr model.Trade) error {
	t.m.trades[tr.ID] = tr
	return nil
}

func (t tradeStore) Close(_ context.Context, id string, closePrice, pnl float64, closedAt time.Time) error {
	tr, ok := t.m.trades[id]
	if !ok {
		return ErrTradeNotFound
	}
	tr.ClosePrice = sql.NullFloat64{Float64: closePrice, Valid: true}
	tr.Pnl = sql.NullFloat64{Float64: pnl, Valid: true}
	tr.Status = model.TradeClosed
	tr.ClosedAt = sql.NullTime{Time: closedAt, Valid: true}
	t.m.trades[id] = tr
	return nil
}

type fixedQuoter struct {
	price float64
	err   error
}

func (q fixedQuoter) LastPrice(context.Context, string) (float64, error) {
	return q.price, q.err
}

const _commission = 2.5

func newTestService(m *memStore, price float64) *Service {
	engine := challenge.NewEngine(m, nopLogger{})
	return NewService(m, tradeStore{m}, engine, fixedQuoter{price: price}, _commission, nopLogger{})
}

func seedAccount(m *memStore, userID string, initial, equity, dailyStart float64) model.Account {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	acc := model.Account{
		ID:                  "acc-1",
		UserID:              userID,
		InitialBalance:      initial,
		Equity:              equity,
		DailyStartingEquity: dailyStart,
		LastDailyReset:      sql.NullTime{Time: today, Valid: true},
		Status:              model.StatusActive,
		CreatedAt:           time.Now().UTC().Add(-24 * time.Hour),
	}
	m.accounts[acc.ID] = acc
	return acc
}

func TestOpen_DeductsCommissionAndReports(t *testing.T) {
	t.Parallel()

	m := newMemStore()
	seedAccount(m, "user-1", 5000, 5000, 5000)
	svc := newTestService(m, 100)

	report, err := svc.Open(context.Background(), "user-1", OpenRequest{
		AccountID: "acc-1",
		Symbol:    "EURUSD",
		Side:      model.Buy,
		Quantity:  10,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.TradeID)
	assert.Equal(t, model.StatusActive, report.Status)
	assert.InDelta(t, 4997.5, report.Equity, 1e-9)
	assert.InDelta(t, -2.5, report.DailyPnl, 1e-9)
	assert.InDelta(t, -2.5, report.TotalPnl, 1e-9)
	assert.Empty(t, report.Reason)

	tr := m.trades[report.TradeID]
	assert.Equal(t, model.TradeOpen, tr.Status)
	assert.InDelta(t, 100.0, tr.OpenPrice, 1e-9)
}

func TestOpen_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		userID  string
		mutate  func(*memStore)
		req     OpenRequest
		wantErr error
	}{
		{
			name:    "failed_account_not_tradable",
			userID:  "user-1",
			mutate:  func(m *memStore) { _ = m.SaveStatus(context.Background(), "acc-1", model.StatusFailed, "x") },
			req:     OpenRequest{AccountID: "acc-1", Symbol: "EURUSD", Side: model.Buy, Quantity: 1},
			wantErr: ErrAccountNotTradable,
		},
		{
			name:    "foreign_account_hidden",
			userID:  "user-2",
			req:     OpenRequest{AccountID: "acc-1", Symbol: "EURUSD", Side: model.Buy, Quantity: 1},
			wantErr: account.ErrNotFound,
		},
		{
			name:    "unknown_account",
			userID:  "user-1",
			req:     OpenRequest{AccountID: "acc-404", Symbol: "EURUSD", Side: model.Buy, Quantity: 1},
			wantErr: account.ErrNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newMemStore()
			seedAccount(m, "user-1", 5000, 5000, 5000)
			if tt.mutate != nil {
				tt.mutate(m)
			}
			svc := newTestService(m, 100)

			_, err := svc.Open(context.Background(), tt.userID, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, m.trades)
		})
	}
}

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	m := newMemStore()
	seedAccount(m, "user-1", 5000, 5000, 5000)
	svc := newTestService(m, 100)

	for name, req := range map[string]OpenRequest{
		"empty_account":  {Symbol: "EURUSD", Side: model.Buy, Quantity: 1},
		"empty_symbol":   {AccountID: "acc-1", Side: model.Buy, Quantity: 1},
		"bad_side":       {AccountID: "acc-1", Symbol: "EURUSD", Side: "HOLD", Quantity: 1},
		"zero_quantity":  {AccountID: "acc-1", Symbol: "EURUSD", Side: model.Buy},
		"negative_qty":   {AccountID: "acc-1", Symbol: "EURUSD", Side: model.Sell, Quantity: -5},
	} {
		req := req
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Open(context.Background(), "user-1", req)
			assert.Error(t, err)
		})
	}
}

func TestClose_RealizesPnl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		side       model.TradeSide
		openPrice  float64
		closePrice float64
		quantity   float64
		wantPnl    float64
	}{
		{"long_profit", model.Buy, 100, 103, 10, 30},
		{"long_loss", model.Buy, 100, 98, 10, -20},
		{"short_profit", model.Sell, 100, 97, 10, 30},
		{"short_loss", model.Sell, 100, 102, 10, -20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newMemStore()
			seedAccount(m, "user-1", 5000, 5000, 5000)
			m.trades["tr-1"] = model.Trade{
				ID:        "tr-1",
				AccountID: "acc-1",
				Symbol:    "EURUSD",
				Side:      tt.side,
				Quantity:  tt.quantity,
				OpenPrice: tt.openPrice,
				Status:    model.TradeOpen,
				OpenedAt:  time.Now().UTC(),
			}
			svc := newTestService(m, tt.closePrice)

			report, err := svc.Close(context.Background(), "user-1", "tr-1")
			require.NoError(t, err)

			assert.InDelta(t, tt.wantPnl, report.Pnl, 1e-9)
			assert.InDelta(t, 5000+tt.wantPnl, report.Equity, 1e-9)
			assert.Equal(t, model.TradeClosed, m.trades["tr-1"].Status)
		})
	}
}

func TestClose_AlreadyClosed(t *testing.T) {
	t.Parallel()

	m := newMemStore()
	seedAccount(m, "user-1", 5000, 5000, 5000)
	m.trades["tr-1"] = model.Trade{
		ID:        "tr-1",
		AccountID: "acc-1",
		Symbol:    "EURUSD",
		Status:    model.TradeClosed,
	}
	svc := newTestService(m, 100)

	_, err := svc.Close(context.Background(), "user-1", "tr-1")
	assert.ErrorIs(t, err, ErrTradeAlreadyClosed)
}

func TestClose_NonActiveAccountRejected(t *testing.T) {
	t.Parallel()

	m := newMemStore()
	for _, status := range []model.ChallengeStatus{
		model.StatusFailed, model.StatusPassed, model.StatusPending, model.StatusFunded,
	} {
		acc := seedAccount(m, "user-1", 5000, 4600, 4600)
		acc.Status = status
		m.accounts[acc.ID] = acc
		m.trades["tr-1"] = model.Trade{
			ID:        "tr-1",
			AccountID: "acc-1",
			Symbol:    "EURUSD",
			Side:      model.Buy,
			Quantity:  10,
			OpenPrice: 100,
			Status:    model.TradeOpen,
		}
		svc := newTestService(m, 110)

		_, err := svc.Close(context.Background(), "user-1", "tr-1")
		assert.ErrorIs(t, err, ErrAccountNotTradable, "status %s", status)
		assert.InDelta(t, 4600.0, m.accounts["acc-1"].Equity, 1e-9, "status %s", status)
		assert.Equal(t, model.TradeOpen, m.trades["tr-1"].Status, "status %s", status)
	}
}

func TestClose_DailyLossFailsChallenge(t *testing.T) {
	t.Parallel()

	// End to end: a 5000 account loses 300 in one day.
	m := newMemStore()
	seedAccount(m, "user-1", 5000, 5000, 5000)
	m.trades["tr-1"] = model.Trade{
		ID:        "tr-1",
		AccountID: "acc-1",
		Symbol:    "EURUSD",
		Side:      model.Buy,
		Quantity:  100,
		OpenPrice: 10,
		Status:    model.TradeOpen,
		OpenedAt:  time.Now().UTC(),
	}
	svc := newTestService(m, 7) // (7-10)*100 = -300

	report, err := svc.Close(context.Background(), "user-1", "tr-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, report.Status)
	assert.InDelta(t, 4700.0, report.Equity, 1e-9)
	assert.Equal(t, "Daily Loss Exceeded: Equity 4700.00 <= Daily Limit 4750.00 (Started at 5000.00)", report.Reason)
	assert.Equal(t, model.StatusFailed, m.accounts["acc-1"].Status)
}

func TestClose_ProfitTargetPassesChallenge(t *testing.T) {
	t.Parallel()

	m := newMemStore()
	seedAccount(m, "user-1", 5000, 5000, 5000)
	m.trades["tr-1"] = model.Trade{
		ID:        "tr-1",
		AccountID: "acc-1",
		Symbol:    "EURUSD",
		Side:      model.Buy,
		Quantity:  100,
		OpenPrice: 10,
		Status:    model.TradeOpen,
		OpenedAt:  time.Now().UTC(),
	}
	svc := newTestService(m, 15.5) // (15.5-10)*100 = +550

	report, err := svc.Close(context.Background(), "user-1", "tr-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPassed, report.Status)
	assert.InDelta(t, 5550.0, report.Equity, 1e-9)
	assert.Equal(t, "Profit Target Achieved: Equity 5550.00 >= Target 5500.00", report.Reason)
}

func TestOpen_QuoteFailurePropagates(t *testing.T) {
	t.Parallel()

	m := newMemStore()
	seedAccount(m, "user-1", 5000, 5000, 5000)
	engine := challenge.NewEngine(m, nopLogger{})
	svc := NewService(m, tradeStore{m}, engine, fixedQuoter{err: errors.New("feed down")}, _commission, nopLogger{})

	_, err := svc.Open(context.Background(), "user-1", OpenRequest{
		AccountID: "acc-1",
		Symbol:    "EURUSD",
		Side:      model.Buy,
		Quantity:  1,
	})
	require.Error(t, err)
	assert.Empty(t, m.trades)
}
