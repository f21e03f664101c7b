package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/handlers"
)

func TestCommandName(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "/start", want: "/start"},
		{in: "/START@weva_bot ref-42", want: "/start"},
		{in: "/end   now", want: "/end"},
		{in: "", want: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, commandName(tc.in))
		})
	}
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	r := NewRouter(nil)

	var order []string
	mw := func(name string) handlers.Middleware {
		return func(next handlers.Handler) handlers.Handler {
			return func(c telebot.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	r.Use(mw("first"))
	r.Use(mw("second"))

	h := r.applyMiddlewares(func(telebot.Context) error {
		order = append(order, "handler")
		return nil
	})
	assert.NoError(t, h(nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
	assert.Nil(t, r.applyMiddlewares(nil))
}

func TestRouter_FindCallbackHandler(t *testing.T) {
	r := NewRouter(nil)
	r.RegisterCallback("cat", func(telebot.Context) error { return nil })

	assert.NotNil(t, r.findCallbackHandler("cat:1"))
	assert.NotNil(t, r.findCallbackHandler("\fcat:1"))
	assert.Nil(t, r.findCallbackHandler("ctr:1"))
	assert.Nil(t, r.findCallbackHandler("garbage"))
}
