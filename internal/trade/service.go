package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
	"github.com/tradesenseai/challenge-platform/internal/tools"
)

var (
	ErrAccountNotTradable = errors.New("account is not tradable")
	ErrTradeAlreadyClosed = errors.New("trade already closed")
)

type Accounts interface {
	GetByID(ctx context.Context, id string) (model.Account, error)
	SetEquity(ctx context.Context, id string, equity float64) error
}

type Trades interface {
	GetByID(ctx context.Context, id string) (model.Trade, error)
	Insert(ctx context.Context, tr model.Trade) error
	Close(ctx context.Context, id string, closePrice, pnl float64, closedAt time.Time) error
}

// Evaluator is the challenge rule engine, invoked after every equity
// mutation.
type Evaluator interface {
	Evaluate(ctx context.Context, accountID string) (model.ChallengeStatus, bool, error)
}

type Quoter interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

type OpenRequest struct {
	AccountID string
	Symbol    string
	Side      model.TradeSide
	Quantity  float64
}

// Report is what the trade handlers return to the HTTP layer after the
// engine has had its say. Monetary fields are rounded for display only.
type Report struct {
	TradeID  string                `json:"trade_id"`
	Price    float64               `json:"price"`
	Pnl      float64               `json:"pnl,omitempty"`
	Status   model.ChallengeStatus `json:"status"`
	Equity   float64               `json:"equity"`
	DailyPnl float64               `json:"daily_pnl"`
	TotalPnl float64               `json:"total_pnl"`
	Reason   string                `json:"reason,omitempty"`
}

// Service opens and closes simulated trades against a challenge account.
// Every mutation is followed by a synchronous rule-engine evaluation; the
// report reflects the account state re-read after that evaluation.
type Service struct {
	accounts   Accounts
	trades     Trades
	engine     Evaluator
	quoter     Quoter
	commission float64
	logger     logger.Logger

	now func() time.Time
}

func NewService(accounts Accounts, trades Trades, engine Evaluator, quoter Quoter, commission float64, logger logger.Logger) *Service {
	return &Service{
		accounts:   accounts,
		trades:     trades,
		engine:     engine,
		quoter:     quoter,
		commission: commission,
		logger:     logger,
		now:        time.Now,
	}
}

// Open creates an OPEN trade at the current quote, deducts the fixed
// commission from equity and evaluates the challenge rules. The userID must
// own the account; foreign accounts are reported as not found.
func (s *Service) Open(ctx context.Context, userID string, req OpenRequest) (Report, error) {
	if err := validateOpen(req); err != nil {
		return Report{}, err
	}

	acc, err := s.ownedAccount(ctx, userID, req.AccountID)
	if err != nil {
		return Report{}, err
	}
	if acc.Status != model.StatusActive {
		return Report{}, fmt.Errorf("%w: status %s", ErrAccountNotTradable, acc.Status)
	}

	price, err := s.quoter.LastPrice(ctx, req.Symbol)
	if err != nil {
		return Report{}, fmt.Errorf("%w: can't quote %s", err, req.Symbol)
	}

	tr := model.Trade{
		ID:        uuid.NewString(),
		AccountID: acc.ID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Quantity:  req.Quantity,
		OpenPrice: price,
		Status:    model.TradeOpen,
		OpenedAt:  s.now().UTC(),
	}
	if err := s.trades.Insert(ctx, tr); err != nil {
		return Report{}, err
	}

	if err := s.accounts.SetEquity(ctx, acc.ID, acc.Equity-s.commission); err != nil {
		return Report{}, err
	}
	s.logger.Debugf("trade %s opened on %s: %s %s x%.2f @ %.2f, commission %.2f",
		tr.ID, acc.ID, tr.Side, tr.Symbol, tr.Quantity, price, s.commission)

	return s.evaluateAndReport(ctx, tr.ID, price, 0, acc.ID)
}

// Close realizes P&L at the current quote, applies it to equity and
// evaluates the challenge rules.
func (s *Service) Close(ctx context.Context, userID, tradeID string) (Report, error) {
	tr, err := s.trades.GetByID(ctx, tradeID)
	if err != nil {
		return Report{}, err
	}
	if tr.Status != model.TradeOpen {
		return Report{}, ErrTradeAlreadyClosed
	}

	acc, err := s.ownedAccount(ctx, userID, tr.AccountID)
	if err != nil {
		return Report{}, err
	}
	if acc.Status != model.StatusActive {
		return Report{}, fmt.Errorf("%w: status %s", ErrAccountNotTradable, acc.Status)
	}

	price, err := s.quoter.LastPrice(ctx, tr.Symbol)
	if err != nil {
		return Report{}, fmt.Errorf("%w: can't quote %s", err, tr.Symbol)
	}

	pnl := (price - tr.OpenPrice) * tr.Quantity
	if tr.Side == model.Sell {
		pnl = -pnl
	}

	if err := s.trades.Close(ctx, tr.ID, price, pnl, s.now().UTC()); err != nil {
		return Report{}, err
	}
	if err := s.accounts.SetEquity(ctx, acc.ID, acc.Equity+pnl); err != nil {
		return Report{}, err
	}
	s.logger.Debugf("trade %s closed @ %.2f, pnl %.2f", tr.ID, price, pnl)

	return s.evaluateAndReport(ctx, tr.ID, price, pnl, acc.ID)
}

func (s *Service) evaluateAndReport(ctx context.Context, tradeID string, price, pnl float64, accountID string) (Report, error) {
	if _, _, err := s.engine.Evaluate(ctx, accountID); err != nil {
		return Report{}, fmt.Errorf("%w: can't evaluate challenge rules", err)
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return Report{}, fmt.Errorf("%w: can't reload account", err)
	}

	return Report{
		TradeID:  tradeID,
		Price:    price,
		Pnl:      tools.RoundMoney(pnl),
		Status:   acc.Status,
		Equity:   tools.RoundMoney(acc.Equity),
		DailyPnl: tools.RoundMoney(acc.DailyPnl()),
		TotalPnl: tools.RoundMoney(acc.TotalPnl()),
		Reason:   acc.ReasonText(),
	}, nil
}

func (s *Service) ownedAccount(ctx context.Context, userID, accountID string) (model.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return model.Account{}, err
	}
	if acc.UserID != userID {
		// do not leak other users' account ids
		return model.Account{}, account.ErrNotFound
	}
	return acc, nil
}

func validateOpen(req OpenRequest) error {
	if req.AccountID == "" {
		return fmt.Errorf("empty account id")
	}
	if req.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if req.Side != model.Buy && req.Side != model.Sell {
		return fmt.Errorf("invalid side %q", req.Side)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return nil
}
