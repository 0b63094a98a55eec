package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
	"github.com/tradesenseai/challenge-platform/internal/tools"
)

// Risk thresholds, relative to initial balance (total loss, profit target)
// or to the current day's starting equity (daily loss).
const (
	_totalLossLimitPct = 0.10
	_dailyLossLimitPct = 0.05
	_profitTargetPct   = 0.10
)

// AccountStore is the persistence collaborator of the engine. Each Save*
// method commits a single field group in one statement.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (model.Account, error)
	SaveDailyReset(ctx context.Context, id string, dailyStartingEquity float64, resetOn time.Time) error
	SaveStatus(ctx context.Context, id string, status model.ChallengeStatus, reason string) error
}

// Engine decides whether a challenge account stays ACTIVE, FAILS or PASSES
// after an equity-mutating trade event. It is stateless: each call re-reads
// the account and evaluates the rules against the wall clock.
//
// The engine does no locking of its own; it relies on the caller to
// serialize trade events per account. Two concurrent evaluations of the
// same account may race on equity and status.
type Engine struct {
	store  AccountStore
	logger logger.Logger

	now func() time.Time
}

func NewEngine(store AccountStore, logger logger.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Evaluate reconciles the daily equity baseline and then applies the risk
// rules in priority order: total max loss, daily max loss, profit target.
// The first matching rule wins; all comparisons are inclusive.
//
// The returned bool is false when the account does not exist, which is not
// an error. Accounts in any status other than ACTIVE are returned unchanged.
func (e *Engine) Evaluate(ctx context.Context, accountID string) (model.ChallengeStatus, bool, error) {
	acc, err := e.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: can't load account", err)
	}

	if acc.Status != model.StatusActive {
		return acc.Status, true, nil
	}

	if err := e.reconcileDailyBaseline(ctx, &acc); err != nil {
		return "", false, err
	}

	minEquityTotal := acc.InitialBalance * (1 - _totalLossLimitPct)
	if acc.Equity <= minEquityTotal {
		reason := fmt.Sprintf("Max Total Loss Exceeded: Equity %.2f <= Limit %.2f", acc.Equity, minEquityTotal)
		return e.transition(ctx, acc, model.StatusFailed, reason)
	}

	minEquityDaily := acc.DailyStartingEquity * (1 - _dailyLossLimitPct)
	if acc.Equity <= minEquityDaily {
		reason := fmt.Sprintf("Daily Loss Exceeded: Equity %.2f <= Daily Limit %.2f (Started at %.2f)",
			acc.Equity, minEquityDaily, acc.DailyStartingEquity)
		return e.transition(ctx, acc, model.StatusFailed, reason)
	}

	targetEquity := acc.InitialBalance * (1 + _profitTargetPct)
	if acc.Equity >= targetEquity {
		reason := fmt.Sprintf("Profit Target Achieved: Equity %.2f >= Target %.2f", acc.Equity, targetEquity)
		return e.transition(ctx, acc, model.StatusPassed, reason)
	}

	return acc.Status, true, nil
}

// reconcileDailyBaseline snapshots equity as the new daily baseline on the
// first evaluation of a new UTC calendar day. The snapshot is persisted
// before any rule check so the daily loss rule measures drawdown within the
// current day only. Accounts predating the last_daily_reset column fall
// back to their creation date.
func (e *Engine) reconcileDailyBaseline(ctx context.Context, acc *model.Account) error {
	today := tools.UTCDate(e.now())

	lastReset := tools.UTCDate(acc.CreatedAt)
	if acc.LastDailyReset.Valid {
		lastReset = tools.UTCDate(acc.LastDailyReset.Time)
	}

	if !lastReset.Before(today) {
		return nil
	}

	if err := e.store.SaveDailyReset(ctx, acc.ID, acc.Equity, today); err != nil {
		return fmt.Errorf("%w: can't persist daily reset", err)
	}

	acc.DailyStartingEquity = acc.Equity
	e.logger.Debugf("account %s: new trading day, baseline reset to %.2f", acc.ID, acc.Equity)
	return nil
}

func (e *Engine) transition(ctx context.Context, acc model.Account, status model.ChallengeStatus, reason string) (model.ChallengeStatus, bool, error) {
	if err := e.store.SaveStatus(ctx, acc.ID, status, reason); err != nil {
		return "", false, fmt.Errorf("%w: can't persist status", err)
	}

	e.logger.Infof("account %s: %s -> %s (%s)", acc.ID, acc.Status, status, reason)
	return status, true, nil
}
