package models

import (
	"time"

	"github.com/google/uuid"
)

// TradingAccount represents one broker account tracked by the journal.
//
// IsMain marks the default target account for trades created without an
// explicit account. The data layer does not enforce that only one account
// is main at a time; the original edit paths allowed several, and that
// behavior is preserved. Callers that need a single main account take the
// first match.
type TradingAccount struct {
	ID              string    `json:"id" validate:"required"`
	Name            string    `json:"name" validate:"required"`
	Broker          string    `json:"broker,omitempty"`
	StartingBalance float64   `json:"startingBalance"`
	IsMain          bool      `json:"isMain,omitempty"`
	IsHidden        bool      `json:"isHidden,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// NewTradingAccount creates an account with a fresh ID.
func NewTradingAccount(a TradingAccount) TradingAccount {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return a
}

// MainAccount returns the first account flagged as main, or nil.
func MainAccount(accounts []TradingAccount) *TradingAccount {
	for i := range accounts {
		if accounts[i].IsMain {
			return &accounts[i]
		}
	}
	return nil
}
