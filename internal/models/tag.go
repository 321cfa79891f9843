package models

import "github.com/google/uuid"

// TagCategory groups tags by what they annotate.
type TagCategory string

const (
	TagMistake TagCategory = "mistake"
	TagSetup   TagCategory = "setup"
	TagHabit   TagCategory = "habit"
	TagCustom  TagCategory = "custom"
)

// Tag annotates trades; no aggregate logic depends on it.
type Tag struct {
	ID       string      `json:"id" validate:"required"`
	Label    string      `json:"label" validate:"required"`
	Category TagCategory `json:"category" validate:"omitempty,oneof=mistake setup habit custom"`
	Color    string      `json:"color,omitempty"`
}

// NewTag creates a tag with a fresh ID, defaulting the category to custom.
func NewTag(t Tag) Tag {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Category == "" {
		t.Category = TagCustom
	}
	return t
}
