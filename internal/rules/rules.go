// Package rules is the static command validation table: which commands need
// a pinned collection context and which lifecycle states allow them.
package rules

import (
	"collectbot/internal/dialog"
	"collectbot/internal/domain"
)

// Rule describes validation requirements of one command.
type Rule struct {
	// NoContext commands clear any pinned context instead of requiring one.
	NoContext bool
	// AllowedStatuses limits the command to collections in these states.
	// Empty means any status is acceptable.
	AllowedStatuses []domain.CollectionStatus
}

var activeOnly = []domain.CollectionStatus{domain.StatusActive}

// table maps command names (no slash) to their rule.
var table = map[string]Rule{
	"start": {NoContext: true},
	"help":  {NoContext: true},
	"new":   {NoContext: true},

	"get":     {},
	"history": {},

	"finish":         {AllowedStatuses: activeOnly},
	"cancel":         {AllowedStatuses: activeOnly},
	"paid":           {AllowedStatuses: activeOnly},
	"approve":        {AllowedStatuses: activeOnly},
	"setname":        {AllowedStatuses: activeOnly},
	"setdescription": {AllowedStatuses: activeOnly},
	"setamount":      {AllowedStatuses: activeOnly},
	"setdate":        {AllowedStatuses: activeOnly},
}

// Lookup returns the rule for a command name (without slash).
func Lookup(cmd string) (Rule, bool) {
	r, ok := table[cmd]
	return r, ok
}

// Reason is a typed denial cause, ordered by priority.
type Reason string

const (
	ReasonNoContext       Reason = "NO_CONTEXT_PROVIDED"
	ReasonContextNotFound Reason = "CONTEXT_NOT_FOUND"
	ReasonInvalidStatus   Reason = "INVALID_STATUS"
)

// ContextInfo is the resolver's view of the pinned context handed to Validate.
type ContextInfo struct {
	// Pinned is true when a context id was recorded for the user.
	Pinned bool
	// Found is true when the pinned collection still exists.
	Found bool
	// Context carries the refreshed context when Found.
	Context *dialog.CollectionContext
}

// Decision is the validation outcome.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Status is the current collection status for INVALID_STATUS denials.
	Status domain.CollectionStatus
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Validate checks a command against the rule table and the resolved context.
// It is pure; the dispatcher performs all state clearing and prompting based
// on the deny reason.
func Validate(cmd string, info ContextInfo) Decision {
	rule, ok := table[cmd]
	if !ok || rule.NoContext {
		return Allow
	}
	if !info.Pinned {
		return Decision{Reason: ReasonNoContext}
	}
	if !info.Found || info.Context == nil {
		return Decision{Reason: ReasonContextNotFound}
	}
	if len(rule.AllowedStatuses) == 0 {
		return Allow
	}
	for _, st := range rule.AllowedStatuses {
		if info.Context.Status == st {
			return Allow
		}
	}
	return Decision{Reason: ReasonInvalidStatus, Status: info.Context.Status}
}

// AllowedActions returns the fixed status -> still-permitted-actions mapping
// used to build INVALID_STATUS messages.
func AllowedActions(status domain.CollectionStatus) []string {
	if status == domain.StatusActive {
		return []string{"pay", "finish", "cancel"}
	}
	return []string{"view only"}
}
