package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "collectbot/core/config"
	"collectbot/internal/config"
	"collectbot/internal/dialog"
	"collectbot/internal/domain"
	"collectbot/internal/flow"
	"collectbot/internal/service"
	"collectbot/internal/testutil"
)

func newCommandTestApp(t *testing.T) (*App, dialog.Store) {
	t.Helper()
	store := dialog.NewMemoryStore()
	svc := service.New(testutil.NewMemCollections(), testutil.NewMemPayments())
	return &App{
		cfg: &config.Config{
			Core: coreconfig.Config{
				Telegram: coreconfig.TelegramConfig{AdminIDs: []int64{1}},
			},
		},
		store: store,
		svc:   svc,
		flows: flow.New(store, svc),
	}, store
}

func pinTestContext(t *testing.T, store dialog.Store, userID int64) {
	t.Helper()
	err := dialog.PinContext(context.Background(), store, userID, &dialog.CollectionContext{
		CollectionID: 3,
		Status:       domain.StatusActive,
		Title:        "Trip",
	})
	require.NoError(t, err)
}

func TestCommand_ContextFreeCommandClearsPin(t *testing.T) {
	a, store := newCommandTestApp(t)
	pinTestContext(t, store, 7)

	var called bool
	h := a.command("start", func(c tele.Context) error {
		called = true
		return nil
	})
	require.NoError(t, h(testutil.NewFakeTele(7, "/start")))
	require.True(t, called)

	snap, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Nil(t, snap.Data.Context, "context-free command must drop the pin")
}

func TestCommand_ContextBoundCommandKeepsPin(t *testing.T) {
	a, store := newCommandTestApp(t)
	pinTestContext(t, store, 7)

	h := a.command("get", func(c tele.Context) error { return nil })
	require.NoError(t, h(testutil.NewFakeTele(7, "/get")))

	snap, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, snap.Data.Context)
	require.Equal(t, int64(3), snap.Data.Context.CollectionID)
}

func TestCommand_ContextFreeCommandResetsFlowAndPin(t *testing.T) {
	a, store := newCommandTestApp(t)
	ctx := context.Background()

	err := store.Set(ctx, 7, dialog.Snapshot{
		State: dialog.StateCreating,
		Data: dialog.Data{
			Context: &dialog.CollectionContext{CollectionID: 3, Status: domain.StatusActive, Title: "Trip"},
			Create:  &dialog.CreateData{Step: dialog.StepAmount, Title: "Lunch"},
		},
	})
	require.NoError(t, err)

	h := a.command("start", func(c tele.Context) error { return nil })
	require.NoError(t, h(testutil.NewFakeTele(7, "/start")))

	snap, err := store.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, dialog.StateNone, snap.State)
	require.Nil(t, snap.Data.Create)
	require.Nil(t, snap.Data.Context)
}

func TestHandleAdmin_NonAdminRejected(t *testing.T) {
	a, store := newCommandTestApp(t)

	fake := testutil.NewFakeTele(555, "/admin")
	require.NoError(t, a.handleAdmin(fake))
	require.Equal(t, msgAdminsOnly, fake.LastSent())

	snap, err := store.Get(context.Background(), 555)
	require.NoError(t, err)
	require.Equal(t, dialog.StateNone, snap.State)
}

// optionsRecorder keeps the send options the plain fake discards.
type optionsRecorder struct {
	*testutil.FakeTele
	opts []interface{}
}

func (r *optionsRecorder) Send(what interface{}, opts ...interface{}) error {
	r.opts = append(r.opts, opts...)
	return r.FakeTele.Send(what, opts...)
}

func TestUnknownText_RepliesWithCommandKeyboard(t *testing.T) {
	a, _ := newCommandTestApp(t)

	fake := &optionsRecorder{FakeTele: testutil.NewFakeTele(7, "what now")}
	require.NoError(t, a.handleUnknownText(fake))
	require.Equal(t, msgUnknownText, fake.LastSent())

	require.Len(t, fake.opts, 1)
	so, ok := fake.opts[0].(*tele.SendOptions)
	require.True(t, ok)
	require.NotNil(t, so.ReplyMarkup)
	require.NotEmpty(t, so.ReplyMarkup.ReplyKeyboard)
}
