package model

import "time"

type LeaderboardEntry struct {
	Rank           int       `db:"rank" json:"rank"`
	AccountID      string    `db:"account_id" json:"account_id"`
	Email          string    `db:"email" json:"email"`
	InitialBalance float64   `db:"initial_balance" json:"initial_balance"`
	Equity         float64   `db:"equity" json:"equity"`
	ProfitPercent  float64   `db:"profit_percent" json:"profit_percent"`
	SnapshotAt     time.Time `db:"snapshot_at" json:"snapshot_at"`
}
