package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"collectbot/internal/dialog"
	"collectbot/internal/domain"
	"collectbot/internal/rules"
)

func ctxWith(status domain.CollectionStatus) rules.ContextInfo {
	return rules.ContextInfo{
		Pinned: true,
		Found:  true,
		Context: &dialog.CollectionContext{
			CollectionID: 7,
			Status:       status,
			Title:        "Trip",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		cmd    string
		info   rules.ContextInfo
		allow  bool
		reason rules.Reason
	}{
		{name: "no-context command always allowed", cmd: "new", info: rules.ContextInfo{}, allow: true},
		{name: "unknown command allowed", cmd: "frobnicate", info: rules.ContextInfo{}, allow: true},
		{name: "nothing pinned", cmd: "finish", info: rules.ContextInfo{}, reason: rules.ReasonNoContext},
		{
			name:   "pinned but vanished",
			cmd:    "finish",
			info:   rules.ContextInfo{Pinned: true},
			reason: rules.ReasonContextNotFound,
		},
		{name: "finish on active", cmd: "finish", info: ctxWith(domain.StatusActive), allow: true},
		{name: "finish on finished", cmd: "finish", info: ctxWith(domain.StatusFinished), reason: rules.ReasonInvalidStatus},
		{name: "paid on cancelled", cmd: "paid", info: ctxWith(domain.StatusCancelled), reason: rules.ReasonInvalidStatus},
		{name: "get has no status limit", cmd: "get", info: ctxWith(domain.StatusCancelled), allow: true},
		{name: "history has no status limit", cmd: "history", info: ctxWith(domain.StatusFinished), allow: true},
		{name: "setname on active", cmd: "setname", info: ctxWith(domain.StatusActive), allow: true},
		{name: "setname on finished", cmd: "setname", info: ctxWith(domain.StatusFinished), reason: rules.ReasonInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := rules.Validate(tt.cmd, tt.info)
			assert.Equal(t, tt.allow, dec.Allowed)
			if !tt.allow {
				assert.Equal(t, tt.reason, dec.Reason)
			}
		})
	}
}

// Missing-context outranks status: the user first needs a context at all.
func TestValidate_ReasonPriority(t *testing.T) {
	dec := rules.Validate("finish", rules.ContextInfo{Pinned: false, Found: false})
	assert.Equal(t, rules.ReasonNoContext, dec.Reason)

	dec = rules.Validate("finish", rules.ContextInfo{Pinned: true, Found: false})
	assert.Equal(t, rules.ReasonContextNotFound, dec.Reason)
}

func TestValidate_StatusCarried(t *testing.T) {
	dec := rules.Validate("cancel", ctxWith(domain.StatusFinished))
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.StatusFinished, dec.Status)
}

func TestAllowedActions(t *testing.T) {
	assert.Equal(t, []string{"pay", "finish", "cancel"}, rules.AllowedActions(domain.StatusActive))
	assert.Equal(t, []string{"view only"}, rules.AllowedActions(domain.StatusFinished))
	assert.Equal(t, []string{"view only"}, rules.AllowedActions(domain.StatusCancelled))
}

func TestLookup(t *testing.T) {
	rule, ok := rules.Lookup("start")
	assert.True(t, ok)
	assert.True(t, rule.NoContext)

	rule, ok = rules.Lookup("finish")
	assert.True(t, ok)
	assert.False(t, rule.NoContext)

	_, ok = rules.Lookup("unknown")
	assert.False(t, ok)
}
