package entity

import "time"

// AccountSnapshot represents account state at one point in time.
// String fields avoid precision issues when rendered in UI layers.
type AccountSnapshot struct {
	Timestamp     time.Time `json:"ts"`
	Cash          string    `json:"cash"`
	HoldingsValue string    `json:"holdings_value"`
	TotalValue    string    `json:"total_value"`
	ProfitAndLoss string    `json:"pnl"`
	Positions     int       `json:"positions"`
}
