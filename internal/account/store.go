package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
	"github.com/tradesenseai/challenge-platform/internal/tools"
)

var ErrNotFound = errors.New("account not found")

const (
	_queryAccount = `SELECT id, user_id, initial_balance, equity, daily_starting_equity, last_daily_reset, status, reason, created_at
						FROM accounts
						WHERE id = $1`
	_queryUserAccounts = `SELECT id, user_id, initial_balance, equity, daily_starting_equity, last_daily_reset, status, reason, created_at
						FROM accounts
						WHERE user_id = $1
						ORDER BY created_at DESC`
	_insertAccount = `INSERT INTO accounts (
							id, user_id, initial_balance, equity, daily_starting_equity, last_daily_reset, status, created_at
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_updateDailyReset = `UPDATE accounts SET daily_starting_equity = $1, last_daily_reset = $2 WHERE id = $3`
	_updateStatus     = `UPDATE accounts SET status = $1, reason = $2 WHERE id = $3`
	_updateEquity     = `UPDATE accounts SET equity = $1 WHERE id = $2`
)

type Store struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewStore(db *sqlx.DB, logger logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

func (s *Store) GetByID(ctx context.Context, id string) (model.Account, error) {
	var acc model.Account
	if err := s.db.GetContext(ctx, &acc, _queryAccount, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, fmt.Errorf("%w: can't query account", err)
	}
	return acc, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]model.Account, error) {
	var accounts []model.Account
	if err := s.db.SelectContext(ctx, &accounts, _queryUserAccounts, userID); err != nil {
		return nil, fmt.Errorf("%w: can't query user accounts", err)
	}
	return accounts, nil
}

// Create opens a new challenge with the daily baseline primed to the
// starting capital, so the first trading day measures against day one equity.
func (s *Store) Create(ctx context.Context, userID string, initialBalance float64) (model.Account, error) {
	now := time.Now().UTC()
	acc := model.Account{
		ID:                  uuid.NewString(),
		UserID:              userID,
		InitialBalance:      initialBalance,
		Equity:              initialBalance,
		DailyStartingEquity: initialBalance,
		LastDailyReset:      sql.NullTime{Time: tools.UTCDate(now), Valid: true},
		Status:              model.StatusActive,
		CreatedAt:           now,
	}

	if _, err := s.db.ExecContext(ctx, _insertAccount,
		acc.ID,
		acc.UserID,
		acc.InitialBalance,
		acc.Equity,
		acc.DailyStartingEquity,
		acc.LastDailyReset,
		acc.Status,
		acc.CreatedAt,
	); err != nil {
		return model.Account{}, fmt.Errorf("%w: can't insert account", err)
	}

	s.logger.Infof("challenge account %s opened for user %s with balance %.2f", acc.ID, userID, initialBalance)
	return acc, nil
}

func (s *Store) SaveDailyReset(ctx context.Context, id string, dailyStartingEquity float64, resetOn time.Time) error {
	res, err := s.db.ExecContext(ctx, _updateDailyReset, dailyStartingEquity, resetOn, id)
	if err != nil {
		return fmt.Errorf("%w: can't update daily reset", err)
	}
	return checkAffected(res)
}

func (s *Store) SaveStatus(ctx context.Context, id string, status model.ChallengeStatus, reason string) error {
	res, err := s.db.ExecContext(ctx, _updateStatus, status, reason, id)
	if err != nil {
		return fmt.Errorf("%w: can't update status", err)
	}
	return checkAffected(res)
}

func (s *Store) SetEquity(ctx context.Context, id string, equity float64) error {
	res, err := s.db.ExecContext(ctx, _updateEquity, equity, id)
	if err != nil {
		return fmt.Errorf("%w: can't update equity", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't get affected rows", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
