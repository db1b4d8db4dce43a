package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/internal/bot/keyboard"
	"github.com/fitgram/exercise-bot/internal/catalog"
	"github.com/fitgram/exercise-bot/internal/session"
	"github.com/fitgram/exercise-bot/internal/state"
)

const testUserID int64 = 42

func newMachine() state.Machine {
	return state.NewMachine(state.NewMemoryStorage(), testLogger(), nil)
}

func TestHelpHandler(t *testing.T) {
	recorder := testRecorder(t)
	handler := NewHelpHandler(testLocales(t), session.NewMemoryStore("ru"), recorder, testLogger())

	c := newContext(testUserID, "/help")
	require.NoError(t, handler(c))

	assert.Equal(t, []string{"помощь"}, c.sentTexts())

	entries, err := recorder.ListByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/help", entries[0].Description)
	assert.Equal(t, "tester", entries[0].Username)
}

func TestDefaultHandler(t *testing.T) {
	recorder := testRecorder(t)
	handler := NewDefaultHandler(testLocales(t), session.NewMemoryStore("ru"), recorder, testLogger())

	c := newContext(testUserID, "what is this")
	require.NoError(t, handler(c))

	assert.Equal(t, []string{"не понял"}, c.sentTexts())

	// unparsed text is journaled like any command
	entries, err := recorder.ListByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "what is this", entries[0].Description)
}

func TestLangHandler(t *testing.T) {
	handler := NewLangHandler(testLocales(t), session.NewMemoryStore("ru"), testRecorder(t), keyboard.NewBuilder(testLogger()), testLogger())

	c := newContext(testUserID, "/lang")
	require.NoError(t, handler(c))

	require.Equal(t, []string{"выберите язык"}, c.sentTexts())

	markup := c.markup(0)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "lang_select:ru", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "lang_select:en", markup.InlineKeyboard[1][0].Data)
}

func TestHandleLangSelect(t *testing.T) {
	t.Run("switch confirms in the new language", func(t *testing.T) {
		sessions := session.NewMemoryStore("ru")
		handler := HandleLangSelect(testLocales(t), sessions, testLogger())

		c := newContext(testUserID, "")
		require.NoError(t, handler(c, "en"))

		assert.True(t, c.responded)
		assert.Equal(t, []string{"help"}, c.sentTexts())

		lang, err := sessions.Language(context.Background(), testUserID)
		require.NoError(t, err)
		assert.Equal(t, "en", lang)
	})

	t.Run("unsupported language keeps the session", func(t *testing.T) {
		sessions := session.NewMemoryStore("ru")
		handler := HandleLangSelect(testLocales(t), sessions, testLogger())

		c := newContext(testUserID, "")
		err := handler(c, "de")
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "E400", appErr.Code)

		lang, err := sessions.Language(context.Background(), testUserID)
		require.NoError(t, err)
		assert.Equal(t, "ru", lang)
		assert.Empty(t, c.sent)
	})
}

func TestMuscleSearchHandler(t *testing.T) {
	searcher := &fakeSearcher{muscles: []string{"biceps", "chest"}}
	handler := NewMuscleSearchHandler(
		state.FlowPrimary,
		searcher,
		testLocales(t),
		session.NewMemoryStore("ru"),
		testRecorder(t),
		keyboard.NewBuilder(testLogger()),
		testLogger(),
	)

	c := newContext(testUserID, "/primary")
	require.NoError(t, handler(c))

	require.Equal(t, []string{"выберите основную группу"}, c.sentTexts())

	markup := c.markup(0)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	// labels are localized and capitalized, payloads keep the origin name
	assert.Equal(t, "Бицепс", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "primary_muscle:biceps", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "primary_muscle:chest", markup.InlineKeyboard[1][0].Data)
}

func TestHandleMuscleSelect(t *testing.T) {
	machine := newMachine()
	handler := HandleMuscleSelect(
		state.FlowPrimary,
		testLocales(t),
		session.NewMemoryStore("ru"),
		machine,
		testLogger(),
	)

	c := newContext(testUserID, "")
	require.NoError(t, handler(c, "biceps"))

	assert.True(t, c.responded)
	assert.Equal(t, []string{"сколько для Бицепс"}, c.sentTexts())

	pending, err := machine.Pending(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, state.StateAwaitingLimit, pending.Current)
	assert.Equal(t, state.FlowPrimary, pending.Flow)
	assert.Equal(t, "biceps", pending.Muscle)
}

func TestLimitStateHandler(t *testing.T) {
	newPending := func() *state.Pending {
		return &state.Pending{Current: state.StateAwaitingLimit, Flow: state.FlowPrimary, Muscle: "chest"}
	}

	t.Run("invalid input re-prompts and keeps the continuation", func(t *testing.T) {
		machine := newMachine()
		require.NoError(t, machine.Register(context.Background(), testUserID, newPending()))

		handler := NewLimitStateHandler(&fakeSearcher{}, testLocales(t), session.NewMemoryStore("ru"), machine, testLogger())

		c := newContext(testUserID, "ten")
		require.NoError(t, handler(c, newPending()))

		assert.Equal(t, []string{"не число", "сколько для Грудь"}, c.sentTexts())

		pending, err := machine.Pending(context.Background(), testUserID)
		require.NoError(t, err)
		assert.Equal(t, state.StateAwaitingLimit, pending.Current)
	})

	t.Run("zero limit is invalid", func(t *testing.T) {
		machine := newMachine()
		require.NoError(t, machine.Register(context.Background(), testUserID, newPending()))

		handler := NewLimitStateHandler(&fakeSearcher{}, testLocales(t), session.NewMemoryStore("ru"), machine, testLogger())

		c := newContext(testUserID, "0")
		require.NoError(t, handler(c, newPending()))
		assert.Equal(t, []string{"не число", "сколько для Грудь"}, c.sentTexts())
	})

	t.Run("valid limit renders results and closes the flow", func(t *testing.T) {
		machine := newMachine()
		require.NoError(t, machine.Register(context.Background(), testUserID, newPending()))

		searcher := &fakeSearcher{records: []catalog.Record{pushUpRecord()}}
		handler := NewLimitStateHandler(searcher, testLocales(t), session.NewMemoryStore("ru"), machine, testLogger())

		c := newContext(testUserID, "5")
		require.NoError(t, handler(c, newPending()))

		texts := c.sentTexts()
		require.Len(t, texts, 2)
		assert.Contains(t, texts[0], "<b>Отжимания</b>")
		assert.Contains(t, texts[0], "Тип усилия: <b>Жим</b>")
		assert.Contains(t, texts[0], "  - <b>Грудь</b>")
		assert.Contains(t, texts[0], "Видео: https://youtu.be/x")
		assert.Equal(t, "помощь", texts[1])

		_, err := machine.Pending(context.Background(), testUserID)
		assert.ErrorIs(t, err, state.ErrNotFound)
	})

	t.Run("empty result set still closes with the help text", func(t *testing.T) {
		machine := newMachine()
		require.NoError(t, machine.Register(context.Background(), testUserID, newPending()))

		handler := NewLimitStateHandler(&fakeSearcher{}, testLocales(t), session.NewMemoryStore("ru"), machine, testLogger())

		c := newContext(testUserID, "5")
		require.NoError(t, handler(c, newPending()))

		// the not-found message names the origin muscle, not its translation
		assert.Equal(t, []string{"пусто для chest", "помощь"}, c.sentTexts())
	})
}

func TestSubstrHandler(t *testing.T) {
	machine := newMachine()
	handler := NewSubstrHandler(testLocales(t), session.NewMemoryStore("ru"), testRecorder(t), machine, testLogger())

	c := newContext(testUserID, "/substr")
	require.NoError(t, handler(c))

	assert.Equal(t, []string{"введите подстроку"}, c.sentTexts())

	pending, err := machine.Pending(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, state.StateAwaitingQuery, pending.Current)
}

func TestQueryStateHandler(t *testing.T) {
	newPending := func() *state.Pending {
		return &state.Pending{Current: state.StateAwaitingQuery}
	}

	t.Run("suggestions keyboard for matches", func(t *testing.T) {
		machine := newMachine()
		require.NoError(t, machine.Register(context.Background(), testUserID, newPending()))

		handler := NewQueryStateHandler(testLocales(t), session.NewMemoryStore("ru"), machine, keyboard.NewBuilder(testLogger()), testLogger())

		c := newContext(testUserID, "тяг")
		require.NoError(t, handler(c, newPending()))

		require.Equal(t, []string{"выберите упражнение"}, c.sentTexts())

		markup := c.markup(0)
		require.NotNil(t, markup)
		require.Len(t, markup.InlineKeyboard, 1)
		assert.Equal(t, "Подтягивания", markup.InlineKeyboard[0][0].Text)
		assert.Equal(t, "substr_pick:Pull-up", markup.InlineKeyboard[0][0].Data)

		// the continuation is consumed either way
		_, err := machine.Pending(context.Background(), testUserID)
		assert.ErrorIs(t, err, state.ErrNotFound)
	})

	t.Run("no matches", func(t *testing.T) {
		machine := newMachine()
		require.NoError(t, machine.Register(context.Background(), testUserID, newPending()))

		handler := NewQueryStateHandler(testLocales(t), session.NewMemoryStore("ru"), machine, keyboard.NewBuilder(testLogger()), testLogger())

		c := newContext(testUserID, "zzz")
		require.NoError(t, handler(c, newPending()))

		assert.Equal(t, []string{"ничего не нашлось"}, c.sentTexts())

		_, err := machine.Pending(context.Background(), testUserID)
		assert.ErrorIs(t, err, state.ErrNotFound)
	})
}

func TestHandleSubstrPick(t *testing.T) {
	t.Run("renders the full record", func(t *testing.T) {
		rec := pushUpRecord()
		searcher := &fakeSearcher{byName: &rec}
		handler := HandleSubstrPick(searcher, testLocales(t), session.NewMemoryStore("ru"), testLogger())

		c := newContext(testUserID, "")
		require.NoError(t, handler(c, "Push-up"))

		assert.True(t, c.responded)
		texts := c.sentTexts()
		require.Len(t, texts, 2)
		assert.Contains(t, texts[0], "<b>Отжимания</b>")
		assert.Equal(t, "помощь", texts[1])
	})

	t.Run("stale suggestion", func(t *testing.T) {
		searcher := &fakeSearcher{byNameErr: catalog.ErrNotFound}
		handler := HandleSubstrPick(searcher, testLocales(t), session.NewMemoryStore("ru"), testLogger())

		c := newContext(testUserID, "")
		require.NoError(t, handler(c, "Gone"))

		assert.Equal(t, []string{"ничего не нашлось"}, c.sentTexts())
	})
}

func TestHistoryHandler(t *testing.T) {
	recorder := testRecorder(t)
	ctx := context.Background()

	recorder.Record(ctx, testUserID, "tester", "/help")
	recorder.Record(ctx, testUserID, "tester", "/primary")
	recorder.Record(ctx, 7, "other", "/lang")

	handler := NewHistoryHandler(testLocales(t), session.NewMemoryStore("ru"), recorder, testLogger())

	c := newContext(testUserID, "/history")
	require.NoError(t, handler(c))

	texts := c.sentTexts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "история запросов\n")
	assert.Contains(t, texts[0], "] /help")
	assert.Contains(t, texts[0], "] /primary")
	// the command itself is recorded before listing
	assert.Contains(t, texts[0], "] /history")
	assert.NotContains(t, texts[0], "/lang")
}
