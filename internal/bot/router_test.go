package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/bot/handlers"
	"github.com/fitgram/exercise-bot/internal/state"
)

type fakeContext struct {
	telebot.Context

	sender   *telebot.User
	text     string
	callback *telebot.Callback
}

func (f *fakeContext) Sender() *telebot.User { return f.sender }

func (f *fakeContext) Text() string { return f.text }

func (f *fakeContext) Callback() *telebot.Callback { return f.callback }

func (f *fakeContext) Send(any, ...any) error { return nil }

func (f *fakeContext) Respond(...*telebot.CallbackResponse) error { return nil }

func textContext(userID int64, text string) *fakeContext {
	return &fakeContext{sender: &telebot.User{ID: userID}, text: text}
}

func callbackContext(userID int64, data string) *fakeContext {
	return &fakeContext{
		sender:   &telebot.User{ID: userID},
		callback: &telebot.Callback{Data: data},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDispatcher() (*Dispatcher, state.Machine) {
	machine := state.NewMachine(state.NewMemoryStorage(), testLogger(), nil)
	return NewDispatcher(machine, testLogger()), machine
}

func TestRouter_Commands(t *testing.T) {
	dispatcher, _ := testDispatcher()
	router := NewRouter(dispatcher, testLogger())

	var got string
	router.RegisterCommand("/help", func(c telebot.Context) error {
		got = "help"
		return nil
	})
	router.SetDefault(func(c telebot.Context) error {
		got = "default"
		return nil
	})

	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "plain command", text: "/help", expected: "help"},
		{name: "bot name suffix", text: "/help@exercise_bot", expected: "help"},
		{name: "trailing arguments", text: "/help now", expected: "help"},
		{name: "unknown command falls through", text: "/nope", expected: "default"},
		{name: "free text falls through", text: "hello", expected: "default"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got = ""
			require.NoError(t, router.Route(textContext(1, tc.text)))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRouter_ContinuationWinsOverCommand(t *testing.T) {
	dispatcher, machine := testDispatcher()

	var consumed *state.Pending
	dispatcher.RegisterStateHandler(state.StateAwaitingLimit, func(c telebot.Context, pending *state.Pending) error {
		consumed = pending
		return nil
	})

	router := NewRouter(dispatcher, testLogger())

	commandRan := false
	router.RegisterCommand("/help", func(c telebot.Context) error {
		commandRan = true
		return nil
	})

	pending := &state.Pending{Current: state.StateAwaitingLimit, Flow: state.FlowPrimary, Muscle: "chest"}
	require.NoError(t, machine.Register(context.Background(), 1, pending))

	// while a continuation is open, even command-looking text feeds it
	require.NoError(t, router.Route(textContext(1, "/help")))

	require.NotNil(t, consumed)
	assert.Equal(t, "chest", consumed.Muscle)
	assert.False(t, commandRan)

	// other users are not affected
	consumed = nil
	require.NoError(t, router.Route(textContext(2, "/help")))
	assert.Nil(t, consumed)
	assert.True(t, commandRan)
}

func TestRouter_LastRegistrationWins(t *testing.T) {
	dispatcher, machine := testDispatcher()

	var invoked state.State
	dispatcher.RegisterStateHandler(state.StateAwaitingLimit, func(c telebot.Context, pending *state.Pending) error {
		invoked = state.StateAwaitingLimit
		return nil
	})
	dispatcher.RegisterStateHandler(state.StateAwaitingQuery, func(c telebot.Context, pending *state.Pending) error {
		invoked = state.StateAwaitingQuery
		return nil
	})

	router := NewRouter(dispatcher, testLogger())

	ctx := context.Background()
	require.NoError(t, machine.Register(ctx, 1, &state.Pending{Current: state.StateAwaitingLimit, Flow: state.FlowPrimary, Muscle: "chest"}))
	require.NoError(t, machine.Register(ctx, 1, &state.Pending{Current: state.StateAwaitingQuery}))

	require.NoError(t, router.Route(textContext(1, "bench")))
	assert.Equal(t, state.StateAwaitingQuery, invoked)
}

func TestRouter_Callbacks(t *testing.T) {
	dispatcher, _ := testDispatcher()
	router := NewRouter(dispatcher, testLogger())

	var gotPayload string
	router.RegisterCallback("lang_select", func(c telebot.Context, payload string) error {
		gotPayload = payload
		return nil
	})

	t.Run("decodes unique and payload", func(t *testing.T) {
		require.NoError(t, router.Route(callbackContext(1, "lang_select:en")))
		assert.Equal(t, "en", gotPayload)
	})

	t.Run("strips telebot framing prefix", func(t *testing.T) {
		gotPayload = ""
		require.NoError(t, router.Route(callbackContext(1, "\flang_select:ru")))
		assert.Equal(t, "ru", gotPayload)
	})

	t.Run("unmatched unique is dropped", func(t *testing.T) {
		gotPayload = ""
		require.NoError(t, router.Route(callbackContext(1, "old_menu:x")))
		assert.Empty(t, gotPayload)
	})

	t.Run("empty data is dropped", func(t *testing.T) {
		gotPayload = ""
		require.NoError(t, router.Route(callbackContext(1, "\f")))
		assert.Empty(t, gotPayload)
	})
}

func TestRouter_MiddlewareAppliedOnce(t *testing.T) {
	dispatcher, machine := testDispatcher()
	dispatcher.RegisterStateHandler(state.StateAwaitingQuery, func(c telebot.Context, pending *state.Pending) error {
		return nil
	})

	router := NewRouter(dispatcher, testLogger())

	calls := 0
	router.Use(func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			calls++
			return next(c)
		}
	})

	router.RegisterCommand("/help", func(c telebot.Context) error { return nil })

	require.NoError(t, router.Route(textContext(1, "/help")))
	assert.Equal(t, 1, calls)

	// continuation dispatch also passes the chain exactly once
	require.NoError(t, machine.Register(context.Background(), 1, &state.Pending{Current: state.StateAwaitingQuery}))
	calls = 0
	require.NoError(t, router.Route(textContext(1, "anything")))
	assert.Equal(t, 1, calls)
}

func TestDispatcher_Resolve(t *testing.T) {
	dispatcher, machine := testDispatcher()
	dispatcher.RegisterStateHandler(state.StateAwaitingLimit, func(c telebot.Context, pending *state.Pending) error {
		return nil
	})

	t.Run("idle user resolves to nil", func(t *testing.T) {
		assert.Nil(t, dispatcher.Resolve(textContext(1, "5")))
	})

	t.Run("open continuation resolves to a handler", func(t *testing.T) {
		pending := &state.Pending{Current: state.StateAwaitingLimit, Flow: state.FlowPrimary, Muscle: "chest"}
		require.NoError(t, machine.Register(context.Background(), 1, pending))
		assert.NotNil(t, dispatcher.Resolve(textContext(1, "5")))
	})

	t.Run("unregistered state resolves to nil", func(t *testing.T) {
		require.NoError(t, machine.Register(context.Background(), 2, &state.Pending{Current: state.StateAwaitingQuery}))
		assert.Nil(t, dispatcher.Resolve(textContext(2, "query")))
	})

	t.Run("nil sender resolves to nil", func(t *testing.T) {
		assert.Nil(t, dispatcher.Resolve(&fakeContext{}))
	})
}
