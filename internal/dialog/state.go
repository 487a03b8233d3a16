// Package dialog models the single persisted conversation state each user
// has: which flow is active, the data collected so far, and the pinned
// collection context that stateless commands operate on.
package dialog

import (
	"collectbot/internal/domain"
)

// State identifies the active conversation flow for a user.
type State string

const (
	// StateNone means no flow is in progress.
	StateNone State = "none"
	// StateCreating is the collection creation wizard.
	StateCreating State = "creating_collection"
	// StatePayment is the payment amount entry step.
	StatePayment State = "payment_flow"
	// StateAdmin gates the administrative callback menu.
	StateAdmin State = "admin_mode"
)

// CreateStep is the current step of the creation wizard.
type CreateStep string

const (
	StepTitle       CreateStep = "title"
	StepDescription CreateStep = "description"
	StepAmount      CreateStep = "amount"
	StepDeadline    CreateStep = "deadline"
)

// CollectionContext records which collection stateless commands target.
// It is orthogonal to the active flow and may be set in any state.
type CollectionContext struct {
	CollectionID int64                   `json:"collection_id"`
	Status       domain.CollectionStatus `json:"status"`
	Title        string                  `json:"title"`
}

// CreateData is the payload collected by the creation wizard.
type CreateData struct {
	Step        CreateStep `json:"step"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Target      float64    `json:"target,omitempty"`
}

// PaymentData is the payload of the payment flow.
type PaymentData struct {
	CollectionID int64  `json:"collection_id"`
	Title        string `json:"title,omitempty"`
}

// Data is the closed tagged union persisted next to State. Exactly the
// variant matching the state must be populated; anything else is treated
// as corruption and resets the dialog.
type Data struct {
	Context *CollectionContext `json:"context,omitempty"`
	Create  *CreateData        `json:"create,omitempty"`
	Payment *PaymentData       `json:"payment,omitempty"`
}

// Snapshot is one user's dialog row as read at the start of a handler.
type Snapshot struct {
	State State
	Data  Data
}

// Valid reports whether the payload shape matches the state.
func (s Snapshot) Valid() bool {
	switch s.State {
	case StateNone, StateAdmin:
		return s.Data.Create == nil && s.Data.Payment == nil
	case StateCreating:
		return s.Data.Create != nil && s.Data.Payment == nil && validStep(s.Data.Create.Step)
	case StatePayment:
		return s.Data.Payment != nil && s.Data.Create == nil && s.Data.Payment.CollectionID != 0
	default:
		return false
	}
}

func validStep(step CreateStep) bool {
	switch step {
	case StepTitle, StepDescription, StepAmount, StepDeadline:
		return true
	}
	return false
}

// InProgress reports whether a flow is active.
func (s Snapshot) InProgress() bool {
	return s.State != StateNone
}
