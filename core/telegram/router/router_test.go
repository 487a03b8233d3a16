package router_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coretelegram "collectbot/core/telegram"
	"collectbot/core/telegram/commands"
	"collectbot/core/telegram/middleware"
	"collectbot/core/telegram/router"
	"collectbot/internal/testutil"
)

// textRoute wires a registry with one admin-only command into the free-text
// route and reports whether the handler or the reject hook fired.
func textRoute(reg *coretelegram.Registry, isAdmin func(int64) bool, rejected *bool) tele.HandlerFunc {
	routes := router.TextRoutes(nil, reg, router.TextOptions{
		Admin: middleware.AdminOptions{
			IsAdmin: isAdmin,
			OnReject: func(c tele.Context) error {
				*rejected = true
				return nil
			},
		},
	})
	return routes[0].Handler
}

func adminRegistry(invoked *bool) *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/admin", commands.Command{
		Handler: func(c tele.Context) error {
			*invoked = true
			return nil
		},
		Description: "Admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})
	return reg
}

func TestTextRoutes_AdminOnlyBlocksCaseVariant(t *testing.T) {
	var invoked, rejected bool
	reg := adminRegistry(&invoked)
	handler := textRoute(reg, func(id int64) bool { return false }, &rejected)

	err := handler(testutil.NewFakeTele(555, "/Admin"))

	require.NoError(t, err)
	require.False(t, invoked, "admin handler must not run for a non-admin")
	require.True(t, rejected)
}

func TestTextRoutes_AdminOnlyAllowsAdmin(t *testing.T) {
	var invoked, rejected bool
	reg := adminRegistry(&invoked)
	handler := textRoute(reg, func(id int64) bool { return id == 555 }, &rejected)

	err := handler(testutil.NewFakeTele(555, "/ADMIN"))

	require.NoError(t, err)
	require.True(t, invoked)
	require.False(t, rejected)
}

type callbackFake struct {
	*testutil.FakeTele
	cb       *tele.Callback
	responds int
}

func (f *callbackFake) Callback() *tele.Callback { return f.cb }

func (f *callbackFake) Respond(_ ...*tele.CallbackResponse) error {
	f.responds++
	return nil
}

func TestCallbackRoute_UnknownActionAcknowledgedOnce(t *testing.T) {
	reg := coretelegram.NewRegistry()
	route := router.CallbackRoute(reg, router.CallbackOptions{})

	fake := &callbackFake{
		FakeTele: testutil.NewFakeTele(7, ""),
		cb:       &tele.Callback{ID: "cb1", Data: "\\fnope|x"},
	}

	err := route.Handler(fake)

	require.NoError(t, err)
	require.Equal(t, 1, fake.responds)
	require.Equal(t, "Unsupported action", fake.LastSent())
}

func TestCallbackRoute_KnownActionAcknowledgedOnce(t *testing.T) {
	reg := coretelegram.NewRegistry()
	var invoked bool
	require.NoError(t, reg.RegisterCallback("pick", func(c tele.Context) error {
		invoked = true
		return nil
	}))
	route := router.CallbackRoute(reg, router.CallbackOptions{})

	fake := &callbackFake{
		FakeTele: testutil.NewFakeTele(7, ""),
		cb:       &tele.Callback{ID: "cb2", Data: "\\fpick|1"},
	}

	err := route.Handler(fake)

	require.NoError(t, err)
	require.True(t, invoked)
	require.Equal(t, 1, fake.responds)
}
