package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionType names one of the fixed step action handlers.
type ActionType string

const (
	ActionNavigate       ActionType = "navigate"
	ActionClick          ActionType = "click"
	ActionTypeText       ActionType = "type"
	ActionSelect         ActionType = "select"
	ActionWait           ActionType = "wait"
	ActionWaitForElement ActionType = "wait_for_element"
	ActionScreenshot     ActionType = "screenshot"
	ActionExecuteScript  ActionType = "execute_script"
	ActionWaitForUser    ActionType = "wait_for_user"
)

// actionTypes is the closed set of dispatchable actions.
var actionTypes = map[ActionType]bool{
	ActionNavigate:       true,
	ActionClick:          true,
	ActionTypeText:       true,
	ActionSelect:         true,
	ActionWait:           true,
	ActionWaitForElement: true,
	ActionScreenshot:     true,
	ActionExecuteScript:  true,
	ActionWaitForUser:    true,
}

func (a ActionType) Valid() bool {
	return actionTypes[a]
}

// NeedsElement reports whether the action targets a page element and
// therefore requires a selector.
func (a ActionType) NeedsElement() bool {
	switch a {
	case ActionClick, ActionTypeText, ActionSelect, ActionWaitForElement:
		return true
	default:
		return false
	}
}

// Step is one declarative browser action belonging to a workflow.
// Order values are 1-based, unique and dense within a workflow at rest.
type Step struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflow_id" validate:"required"`
	Order      int             `json:"order"       validate:"gte=1"`
	ActionType ActionType      `json:"action_type" validate:"required"`
	Selector   json.RawMessage `json:"selector,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
	WaitAfter  int             `json:"wait_after"`  // milliseconds of settle time after success
	RetryCount int             `json:"retry_count"` // re-attempts on failure
	Optional   bool            `json:"is_optional"` // failure does not abort the record
}

// ParseConfig decodes the step config payload, tolerating null, absent or
// empty payloads as an empty object.
func (s *Step) ParseConfig() (map[string]any, error) {
	raw := bytes.TrimSpace(s.Config)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	var config map[string]any

	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("step %s: malformed config payload: %w", s.ID, err)
	}

	if config == nil {
		config = map[string]any{}
	}

	return config, nil
}

// ParseSelector decodes the selector description. A bare JSON string is
// accepted as a single "primary" selector; null or absent yields an empty
// spec.
func (s *Step) ParseSelector() (*SelectorSpec, error) {
	raw := bytes.TrimSpace(s.Selector)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &SelectorSpec{}, nil
	}

	if raw[0] == '"' {
		var primary string
		if err := json.Unmarshal(raw, &primary); err != nil {
			return nil, fmt.Errorf("step %s: malformed selector string: %w", s.ID, err)
		}

		return &SelectorSpec{Primary: primary}, nil
	}

	var spec SelectorSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("step %s: malformed selector description: %w", s.ID, err)
	}

	return &spec, nil
}
