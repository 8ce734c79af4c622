package models

import (
	"time"
)

// LedgerEntry kinds
const (
	EntryTypePurchase = "purchase"
	EntryTypeSpend    = "spend"
)

// LedgerEntry is an append-only record of a balance change (coin_transactions)
type LedgerEntry struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"userId" db:"user_id"`
	Amount          int64     `json:"amount" db:"amount"` // signed, in coins
	Type            string    `json:"type" db:"type"`
	RelatedEntityID *string   `json:"relatedEntityId,omitempty" db:"related_entity_id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// Account is the coin-holding side of a profile
type Account struct {
	ID              string `json:"id" db:"id"`
	CoinBalance     int64  `json:"coinBalance" db:"coin_balance"`
	EarningsBalance int64  `json:"earningsBalance" db:"earnings_balance"`
}
