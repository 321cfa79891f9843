// Package models defines the journal's ledger entities.
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Side represents the direction of a trade.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// TradeStatus represents the outcome of a trade.
type TradeStatus string

const (
	StatusOpen      TradeStatus = "OPEN"
	StatusWin       TradeStatus = "WIN"
	StatusLoss      TradeStatus = "LOSS"
	StatusBreakeven TradeStatus = "BE"
)

// Session represents the market session a trade was taken in.
type Session string

const (
	SessionLondon  Session = "LONDON"
	SessionNewYork Session = "NEWYORK"
	SessionAsia    Session = "ASIA"
	SessionSydney  Session = "SYDNEY"
)

// Trade represents a single journal entry for an executed trade.
//
// Commission is stored as a non-positive number (a deduction) and is kept
// separate from PnL; balance aggregation adds both exactly once. AccountID
// may be empty for legacy records, meaning the trade counts toward every
// visible account. IncludeInAccount is tri-state: nil means true.
type Trade struct {
	ID               string      `json:"id" validate:"required"`
	Symbol           string      `json:"symbol" validate:"required"`
	Date             string      `json:"date" validate:"required,datetime=2006-01-02"`
	Time             string      `json:"time,omitempty"`
	Session          Session     `json:"session,omitempty" validate:"omitempty,oneof=LONDON NEWYORK ASIA SYDNEY"`
	Side             Side        `json:"side" validate:"required,oneof=LONG SHORT"`
	Status           TradeStatus `json:"status" validate:"required,oneof=OPEN WIN LOSS BE"`
	PnL              float64     `json:"pnl"`
	EntryPrice       float64     `json:"entryPrice"`
	ExitPrice        float64     `json:"exitPrice"`
	Lots             float64     `json:"lots"`
	Pips             float64     `json:"pips"`
	Commission       float64     `json:"commission,omitempty" validate:"lte=0"`
	AccountID        string      `json:"accountId,omitempty"`
	IncludeInAccount *bool       `json:"includeInAccount,omitempty"`
	RiskAmount       float64     `json:"riskAmount,omitempty"`
	TPAmount         float64     `json:"tpAmount,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Emotion          string      `json:"emotion,omitempty"`
	Mistakes         []string    `json:"mistakes,omitempty"`
	Photos           []string    `json:"photos,omitempty"`
	CreatedAt        time.Time   `json:"createdAt,omitempty"`
	UpdatedAt        time.Time   `json:"updatedAt,omitempty"`
}

// NewTrade creates a trade with a fresh ID and normalized fields.
// Commission sign normalization happens here and in ApplyUpdate so callers
// never have to remember to negate; a caller that builds a Trade literal
// directly bypasses this, and a positive commission would inflate balances.
func NewTrade(t Trade) Trade {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Commission = NormalizeCommission(t.Commission)
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return t
}

// NormalizeCommission forces a commission value to its non-positive form.
func NormalizeCommission(c float64) float64 {
	if c == 0 {
		return 0
	}
	return -math.Abs(c)
}

// Included reports whether the trade participates in balance and stat
// aggregation. Absent (nil) means included.
func (t *Trade) Included() bool {
	return t.IncludeInAccount == nil || *t.IncludeInAccount
}

// CountsToward reports whether the trade belongs to the given account.
// Trades without an account ID are legacy records that count everywhere.
func (t *Trade) CountsToward(accountID string) bool {
	return t.AccountID == "" || t.AccountID == accountID
}

// RiskReward returns the risk:reward ratio derived from the absolute
// price-distance magnitudes, or 0 when risk is unset.
func (t *Trade) RiskReward() float64 {
	if t.RiskAmount == 0 {
		return 0
	}
	return t.TPAmount / t.RiskAmount
}

// TradeUpdate is a partial update for a trade. Nil fields are left untouched.
type TradeUpdate struct {
	Symbol           *string      `json:"symbol,omitempty"`
	Date             *string      `json:"date,omitempty"`
	Time             *string      `json:"time,omitempty"`
	Session          *Session     `json:"session,omitempty"`
	Side             *Side        `json:"side,omitempty"`
	Status           *TradeStatus `json:"status,omitempty"`
	PnL              *float64     `json:"pnl,omitempty"`
	EntryPrice       *float64     `json:"entryPrice,omitempty"`
	ExitPrice        *float64     `json:"exitPrice,omitempty"`
	Lots             *float64     `json:"lots,omitempty"`
	Pips             *float64     `json:"pips,omitempty"`
	Commission       *float64     `json:"commission,omitempty"`
	AccountID        *string      `json:"accountId,omitempty"`
	IncludeInAccount *bool        `json:"includeInAccount,omitempty"`
	RiskAmount       *float64     `json:"riskAmount,omitempty"`
	TPAmount         *float64     `json:"tpAmount,omitempty"`
	Notes            *string      `json:"notes,omitempty"`
	Emotion          *string      `json:"emotion,omitempty"`
	Mistakes         *[]string    `json:"mistakes,omitempty"`
	Photos           *[]string    `json:"photos,omitempty"`
}

// ApplyUpdate merges a partial update into the trade, normalizing
// commission sign on the way in.
func (t *Trade) ApplyUpdate(u TradeUpdate) {
	if u.Symbol != nil {
		t.Symbol = *u.Symbol
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.Time != nil {
		t.Time = *u.Time
	}
	if u.Session != nil {
		t.Session = *u.Session
	}
	if u.Side != nil {
		t.Side = *u.Side
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.PnL != nil {
		t.PnL = *u.PnL
	}
	if u.EntryPrice != nil {
		t.EntryPrice = *u.EntryPrice
	}
	if u.ExitPrice != nil {
		t.ExitPrice = *u.ExitPrice
	}
	if u.Lots != nil {
		t.Lots = *u.Lots
	}
	if u.Pips != nil {
		t.Pips = *u.Pips
	}
	if u.Commission != nil {
		t.Commission = NormalizeCommission(*u.Commission)
	}
	if u.AccountID != nil {
		t.AccountID = *u.AccountID
	}
	if u.IncludeInAccount != nil {
		t.IncludeInAccount = u.IncludeInAccount
	}
	if u.RiskAmount != nil {
		t.RiskAmount = *u.RiskAmount
	}
	if u.TPAmount != nil {
		t.TPAmount = *u.TPAmount
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.Emotion != nil {
		t.Emotion = *u.Emotion
	}
	if u.Mistakes != nil {
		t.Mistakes = *u.Mistakes
	}
	if u.Photos != nil {
		t.Photos = *u.Photos
	}
	t.UpdatedAt = time.Now()
}
