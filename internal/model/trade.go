package model

import (
	"database/sql"
	"time"
)

type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
)

type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

type Trade struct {
	ID         string          `db:"id" json:"id"`
	AccountID  string          `db:"account_id" json:"account_id"`
	Symbol     string          `db:"symbol" json:"symbol"`
	Side       TradeSide       `db:"side" json:"side"`
	Quantity   float64         `db:"quantity" json:"quantity"`
	OpenPrice  float64         `db:"open_price" json:"open_price"`
	ClosePrice sql.NullFloat64 `db:"close_price" json:"-"`
	Pnl        sql.NullFloat64 `db:"pnl" json:"-"`
	Status     TradeStatus     `db:"status" json:"status"`
	OpenedAt   time.Time       `db:"opened_at" json:"opened_at"`
	ClosedAt   sql.NullTime    `db:"closed_at" json:"-"`
}
