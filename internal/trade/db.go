package trade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
)

var ErrTradeNotFound = errors.New("trade not found")

const (
	_queryTrade = `SELECT id, account_id, symbol, side, quantity, open_price, close_price, pnl, status, opened_at, closed_at
					FROM trades
					WHERE id = $1`
	_queryAccountTrades = `SELECT id, account_id, symbol, side, quantity, open_price, close_price, pnl, status, opened_at, closed_at
					FROM trades
					WHERE account_id = $1
					ORDER BY opened_at DESC
					LIMIT $2 OFFSET $3`
	_insertTrade = `INSERT INTO trades (
						id, account_id, symbol, side, quantity, open_price, status, opened_at
					) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_closeTrade = `UPDATE trades SET close_price = $1, pnl = $2, status = $3, closed_at = $4 WHERE id = $5`
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

func (s *Store) GetByID(ctx context.Context, id string) (model.Trade, error) {
	var tr model.Trade
	if err := s.db.GetContext(ctx, &tr, _queryTrade, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Trade{}, ErrTradeNotFound
		}
		return model.Trade{}, fmt.Errorf("%w: can't query trade", err)
	}
	return tr, nil
}

func (s *Store) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]model.Trade, error) {
	var trades []model.Trade
	if err := s.db.SelectContext(ctx, &trades, _queryAccountTrades, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("%w: can't query account trades", err)
	}
	return trades, nil
}

func (s *Store) Insert(ctx context.Context, tr model.Trade) error {
	if _, err := s.db.ExecContext(ctx, _insertTrade,
		tr.ID,
		tr.AccountID,
		tr.Symbol,
		tr.Side,
		tr.Quantity,
		tr.OpenPrice,
		tr.Status,
		tr.OpenedAt,
	); err != nil {
		return fmt.Errorf("%w: can't insert trade", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context, id string, closePrice, pnl float64, closedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, _closeTrade, closePrice, pnl, model.TradeClosed, closedAt, id)
	if err != nil {
		return fmt.Errorf("%w: can't close trade", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't get affected rows", err)
	}
	if rows == 0 {
		return ErrTradeNotFound
	}
	return nil
}
