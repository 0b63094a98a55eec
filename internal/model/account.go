package model

import (
	"database/sql"
	"time"
)

type ChallengeStatus string

const (
	StatusPending ChallengeStatus = "PENDING"
	StatusActive  ChallengeStatus = "ACTIVE"
	StatusPassed  ChallengeStatus = "PASSED"
	StatusFailed  ChallengeStatus = "FAILED"
	StatusFunded  ChallengeStatus = "FUNDED"
)

// IsTerminal reports whether the status can never change again.
// PENDING and FUNDED are managed outside the rule engine and are not terminal.
func (s ChallengeStatus) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed
}

type Account struct {
	ID                  string          `db:"id" json:"id"`
	UserID              string          `db:"user_id" json:"user_id"`
	InitialBalance      float64         `db:"initial_balance" json:"initial_balance"`
	Equity              float64         `db:"equity" json:"equity"`
	DailyStartingEquity float64         `db:"daily_starting_equity" json:"daily_starting_equity"`
	LastDailyReset      sql.NullTime    `db:"last_daily_reset" json:"-"`
	Status              ChallengeStatus `db:"status" json:"status"`
	Reason              sql.NullString  `db:"reason" json:"-"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// DailyPnl is measured against the current trading day's baseline.
func (a Account) DailyPnl() float64 {
	return a.Equity - a.DailyStartingEquity
}

func (a Account) TotalPnl() float64 {
	return a.Equity - a.InitialBalance
}

func (a Account) ReasonText() string {
	if a.Reason.Valid {
		return a.Reason.String
	}
	return ""
}
