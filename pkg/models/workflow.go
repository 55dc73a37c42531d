// Package models defines the core domain models for browser workflow replay.
package models

import "time"

// Workflow is a stored sequence of browser actions replayed once per input record.
type Workflow struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"            validate:"required,min=3"`
	TargetURL      string    `json:"target_url"      validate:"required,url"`
	DefaultTimeout int       `json:"default_timeout" validate:"gte=0"` // milliseconds, element resolution window
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
