package handlers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/catalog"
	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/locale"
)

// fakeContext implements the slice of telebot.Context the handlers touch and
// records outbound sends. Unimplemented methods panic, which is fine here.
type fakeContext struct {
	telebot.Context

	sender    *telebot.User
	text      string
	callback  *telebot.Callback
	sent      []sentMessage
	responded bool
}

type sentMessage struct {
	what any
	opts []any
}

func (f *fakeContext) Sender() *telebot.User { return f.sender }

func (f *fakeContext) Text() string { return f.text }

func (f *fakeContext) Callback() *telebot.Callback { return f.callback }

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, sentMessage{what: what, opts: opts})
	return nil
}

func (f *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	f.responded = true
	return nil
}

func newContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID, Username: "tester"},
		text:   text,
	}
}

func (f *fakeContext) sentTexts() []string {
	texts := make([]string, 0, len(f.sent))
	for _, msg := range f.sent {
		if s, ok := msg.what.(string); ok {
			texts = append(texts, s)
		}
	}
	return texts
}

func (f *fakeContext) markup(i int) *telebot.ReplyMarkup {
	if i >= len(f.sent) {
		return nil
	}
	for _, opt := range f.sent[i].opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok {
			return markup
		}
	}
	return nil
}

const ruHandlerFixture = `
messages:
  help_text: "помощь"
  parse_error: "не понял"
  lang:
    "1": "выберите язык"
  primary:
    "1": "выберите основную группу"
    "2": "сколько для %s"
    "3": "не число"
    "4": "пусто для %s"
  secondary:
    "1": "выберите вспомогательную группу"
    "2": "сколько для %s"
    "3": "не число"
    "4": "пусто для %s"
  substr:
    "1": "введите подстроку"
    "2": "выберите упражнение"
    "3": "ничего не нашлось"
  history:
    "1": "история запросов"
muscles:
  biceps: "бицепс"
  chest: "грудь"
exercise_name:
  "Push-up": "Отжимания"
  "Pull-up": "Подтягивания"
force_type:
  push: "жим"
exercise_type:
  strength: "силовое"
workout_type:
  gym: "зал"
obj_field_names:
  "Force": "Тип усилия"
  "Primary Muscles": "Основные мышцы"
  "SecondaryMuscles": "Вспомогательные мышцы"
  "Type": "Тип упражнения"
  "Workout Type": "Тип тренировки"
  "Youtube link": "Видео"
`

const enHandlerFixture = `
messages:
  help_text: "help"
  parse_error: "could not parse"
exercise_name:
  "Push-up": "Push-up"
  "Pull-up": "Pull-up"
`

func testLocales(t *testing.T) *locale.Manager {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ru.yaml"), []byte(ruHandlerFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(enHandlerFixture), 0o644))

	mgr, err := locale.Load(dir, "ru")
	require.NoError(t, err)
	return mgr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecorder(t *testing.T) *history.Recorder {
	t.Helper()

	store, err := history.NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return history.NewRecorder(store, testLogger())
}

// fakeSearcher is a canned catalog.Searcher.
type fakeSearcher struct {
	muscles   []string
	records   []catalog.Record
	byName    *catalog.Record
	byNameErr error
	err       error
}

func (f *fakeSearcher) Muscles(ctx context.Context) ([]string, error) {
	return f.muscles, f.err
}

func (f *fakeSearcher) ByPrimaryMuscle(ctx context.Context, muscle string, limit int) ([]catalog.Record, error) {
	return f.records, f.err
}

func (f *fakeSearcher) BySecondaryMuscle(ctx context.Context, muscle string, limit int) ([]catalog.Record, error) {
	return f.records, f.err
}

func (f *fakeSearcher) ByName(ctx context.Context, name string) (*catalog.Record, error) {
	return f.byName, f.byNameErr
}

func pushUpRecord() catalog.Record {
	return catalog.Record{
		Name:             "Push-up",
		Force:            "push",
		PrimaryMuscles:   []string{"chest"},
		SecondaryMuscles: []string{"biceps"},
		Type:             "strength",
		WorkoutTypes:     []string{"gym"},
		YoutubeLink:      "https://youtu.be/x",
	}
}
