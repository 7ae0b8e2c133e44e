package models

import "time"

// FlowState is the transient state of one booking attempt, keyed by the UI
// session. It survives across requests in the state repository so the flow
// can resume after a page reload.
type FlowState struct {
	SessionID    string    `json:"session_id"`
	SelectedDate time.Time `json:"selected_date"`
	Period       Period    `json:"period"`
	DeskID       string    `json:"desk_id,omitempty"`
	DeskName     string    `json:"desk_name,omitempty"`
	Availability string    `json:"availability"`
	Submission   string    `json:"submission"`

	// CheckToken identifies the most recently issued availability check.
	// A response carrying any other token is stale and must be discarded.
	CheckToken string `json:"check_token,omitempty"`

	Blocking      *Booking  `json:"blocking,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewFlowState returns the initial state: today, full day, nothing selected.
func NewFlowState(sessionID string, today time.Time) *FlowState {
	return &FlowState{
		SessionID:    sessionID,
		SelectedDate: DayOf(today),
		Period:       PeriodFull,
		Availability: AvailUnknown,
		Submission:   SubmitIdle,
		UpdatedAt:    today,
	}
}

// Reset returns the flow to its initial state without side effects.
func (f *FlowState) Reset(today time.Time) {
	*f = *NewFlowState(f.SessionID, today)
}

// HasDesk reports whether a desk is currently selected.
func (f *FlowState) HasDesk() bool {
	return f.DeskID != ""
}
