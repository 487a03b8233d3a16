package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collectbot/internal/domain"
	"collectbot/internal/rules"
	"collectbot/internal/testutil"
)

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{text: "/setname New trip name", expected: "New trip name"},
		{text: "/setname", expected: ""},
		{text: "/setamount  2000 ", expected: "2000"},
		{text: "plain text", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c := testutil.NewFakeTele(1, tt.text)
			assert.Equal(t, tt.expected, commandArgs(c))
		})
	}
}

func TestDenyMessage_InvalidStatusNamesActions(t *testing.T) {
	msg := denyMessage(rules.Decision{
		Reason: rules.ReasonInvalidStatus,
		Status: domain.StatusFinished,
	})
	assert.Contains(t, msg, "finished")
	assert.Contains(t, msg, "view only")

	msg = denyMessage(rules.Decision{Reason: rules.ReasonNoContext})
	assert.Contains(t, msg, "/new")
}

func TestCollectionCard(t *testing.T) {
	col := domain.Collection{
		Title:         "Trip",
		Description:   "Gas money",
		TargetAmount:  1500,
		CurrentAmount: 200.5,
		Status:        domain.StatusActive,
		Deadline:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local),
	}
	card := collectionCard(col)
	assert.Contains(t, card, "Trip")
	assert.Contains(t, card, "active")
	assert.Contains(t, card, "200.5 of 1500")
	assert.Contains(t, card, "01.06.2026")
}

func TestFmtAmount(t *testing.T) {
	assert.Equal(t, "1500", fmtAmount(1500))
	assert.Equal(t, "99.5", fmtAmount(99.5))
	assert.Equal(t, "0.25", fmtAmount(0.25))
}

func TestChooseCollectionMarkup(t *testing.T) {
	cols := []domain.Collection{
		{ID: 1, Title: "Trip", Status: domain.StatusActive},
		{ID: 2, Title: "Gift", Status: domain.StatusFinished},
	}
	markup := chooseCollectionMarkup(cols, "finish")
	require.Len(t, markup.InlineKeyboard, 2)
	first := markup.InlineKeyboard[0][0]
	assert.Contains(t, first.Text, "Trip")
	assert.Contains(t, first.Data, "1|finish")
}
