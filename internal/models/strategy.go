package models

import "github.com/google/uuid"

// GeneralSymbol is the sentinel symbol for pair-agnostic strategies.
const GeneralSymbol = "GENERAL"

// ChecklistItem is one entry in a strategy's ordered checklist.
type ChecklistItem struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Strategy represents a trading setup with its entry checklist.
type Strategy struct {
	ID        string          `json:"id" validate:"required"`
	Title     string          `json:"title" validate:"required"`
	Symbol    string          `json:"symbol,omitempty"`
	Checklist []ChecklistItem `json:"checklist,omitempty"`
	Photos    []string        `json:"photos,omitempty"`
}

// NewStrategy creates a strategy with a fresh ID, defaulting the symbol to
// the pair-agnostic sentinel.
func NewStrategy(s Strategy) Strategy {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Symbol == "" {
		s.Symbol = GeneralSymbol
	}
	for i := range s.Checklist {
		if s.Checklist[i].ID == "" {
			s.Checklist[i].ID = uuid.NewString()
		}
	}
	return s
}
