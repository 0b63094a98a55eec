package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tradesenseai/challenge-platform/internal/model"
)

const (
	// PASSED and FUNDED accounts keep their spot; FAILED ones drop off.
	_queryRanked = `SELECT row_number() OVER (ORDER BY (a.equity - a.initial_balance) / a.initial_balance DESC) AS rank,
						a.id AS account_id,
						u.email,
						a.initial_balance,
						a.equity,
						round(((a.equity - a.initial_balance) / a.initial_balance * 100)::numeric, 4)::float8 AS profit_percent
					FROM accounts a
					JOIN users u ON u.id = a.user_id
					WHERE a.status IN ('ACTIVE', 'PASSED', 'FUNDED')
					ORDER BY profit_percent DESC
					LIMIT $1`
	_deleteSnapshot = `DELETE FROM leaderboard_snapshots`
	_insertSnapshot = `INSERT INTO leaderboard_snapshots (
							rank, account_id, email, initial_balance, equity, profit_percent, snapshot_at
						) VALUES ($1,$2,$3,$4,$5,$6,$7)`
)

type DBSource struct {
	db *sqlx.DB
}

func NewDBSource(db *sqlx.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) TopByProfit(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	if err := s.db.SelectContext(ctx, &entries, _queryRanked, limit); err != nil {
		return nil, fmt.Errorf("%w: can't query ranked accounts", err)
	}
	return entries, nil
}

// SaveSnapshot replaces the snapshot table wholesale inside one transaction.
func (s *DBSource) SaveSnapshot(ctx context.Context, entries []model.LeaderboardEntry, at time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: can't begin snapshot tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, _deleteSnapshot); err != nil {
		return fmt.Errorf("%w: can't clear snapshot", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, _insertSnapshot,
			e.Rank,
			e.AccountID,
			e.Email,
			e.InitialBalance,
			e.Equity,
			e.ProfitPercent,
			at,
		); err != nil {
			return fmt.Errorf("%w: can't insert snapshot row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: can't commit snapshot", err)
	}
	return nil
}
