package model

import "time"

type QuoteResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type QuoteErrorResponse struct {
	Message    string        `json:"message"`
	RetryAfter time.Duration `json:"retry_after"`
}
