package entity

// Position is a held quantity of one symbol within an account.
// Quantity is always positive: a position that reaches zero shares is
// removed from the account instead of being kept as an empty row.
type Position struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}
