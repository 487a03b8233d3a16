package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"collectbot/internal/domain"
)

func TestSnapshotValid(t *testing.T) {
	cc := &CollectionContext{CollectionID: 7, Status: domain.StatusActive, Title: "Trip"}

	tests := []struct {
		name  string
		snap  Snapshot
		valid bool
	}{
		{name: "idle", snap: Snapshot{State: StateNone}, valid: true},
		{name: "idle with context", snap: Snapshot{State: StateNone, Data: Data{Context: cc}}, valid: true},
		{name: "admin mode", snap: Snapshot{State: StateAdmin}, valid: true},
		{
			name:  "creating with create data",
			snap:  Snapshot{State: StateCreating, Data: Data{Create: &CreateData{Step: StepTitle}}},
			valid: true,
		},
		{
			name:  "payment with payment data",
			snap:  Snapshot{State: StatePayment, Data: Data{Payment: &PaymentData{CollectionID: 7}}},
			valid: true,
		},
		{name: "creating without payload", snap: Snapshot{State: StateCreating}, valid: false},
		{
			name:  "creating with wrong payload",
			snap:  Snapshot{State: StateCreating, Data: Data{Payment: &PaymentData{CollectionID: 7}}},
			valid: false,
		},
		{
			name:  "creating with unknown step",
			snap:  Snapshot{State: StateCreating, Data: Data{Create: &CreateData{Step: "bogus"}}},
			valid: false,
		},
		{
			name:  "payment with zero collection",
			snap:  Snapshot{State: StatePayment, Data: Data{Payment: &PaymentData{}}},
			valid: false,
		},
		{
			name:  "idle carrying stale payload",
			snap:  Snapshot{State: StateNone, Data: Data{Create: &CreateData{Step: StepTitle}}},
			valid: false,
		},
		{name: "unknown state", snap: Snapshot{State: State("corrupt")}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.snap.Valid())
		})
	}
}

func TestSnapshotInProgress(t *testing.T) {
	assert.False(t, Snapshot{State: StateNone}.InProgress())
	assert.True(t, Snapshot{State: StateCreating}.InProgress())
	assert.True(t, Snapshot{State: StateAdmin}.InProgress())
}
