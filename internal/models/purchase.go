package models

import (
	"time"
)

// PendingPurchase statuses
const (
	PurchaseStatusPending    = "pending"
	PurchaseStatusSuccessful = "successful"
	PurchaseStatusFailed     = "failed"
)

// CoinPackage is a purchasable bundle of coins
type CoinPackage struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	Currency    string  `json:"currency" db:"currency"`
	CoinsAmount int64   `json:"coinsAmount" db:"coins_amount"`
	IsActive    bool    `json:"isActive" db:"is_active"`
}

// MinorUnits returns the price in the smallest currency unit (kobo, cents).
func (p *CoinPackage) MinorUnits() int64 {
	return int64(p.Price*100 + 0.5)
}

// PendingPurchase tracks a coin purchase from initialization until the
// provider confirms it (transactions table)
type PendingPurchase struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	PackageID   string    `json:"packageId" db:"package_id"`
	Amount      float64   `json:"amount" db:"amount"`
	Currency    string    `json:"currency" db:"currency"`
	CoinsAmount int64     `json:"coinsAmount" db:"coins_amount"`
	Status      string    `json:"status" db:"status"`
	Reference   string    `json:"reference" db:"reference"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Notification types written by the ledger
const (
	NotificationCoinPurchaseConfirmed = "COIN_PURCHASE_CONFIRMED"
)
