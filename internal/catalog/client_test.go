package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(config.CatalogConfig{
		Host:    "example.test",
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, testLogger())
	client.baseURL = server.URL
	return client
}

func TestClient_Muscles(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/muscles/", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "example.test", r.Header.Get("X-RapidAPI-Host"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["biceps","chest","lats"]`))
	})

	muscles, err := client.Muscles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"biceps", "chest", "lats"}, muscles)
}

func TestClient_ByPrimaryMuscle(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/", r.URL.Path)
		assert.Equal(t, "chest", r.URL.Query().Get("primaryMuscle"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Name": "Push-up", "Force": "push"},
			{"Name": "Barbell bench press", "Force": "push"},
			{"Name": "Dips", "Force": "push"}
		]`))
	})

	records, err := client.ByPrimaryMuscle(context.Background(), "chest", 2)
	require.NoError(t, err)
	// the service does not paginate; the client truncates
	require.Len(t, records, 2)
	assert.Equal(t, "Push-up", records[0].Name)
}

func TestClient_BySecondaryMuscle(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "biceps", r.URL.Query().Get("secondaryMuscle"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Name": "Pull-up", "SecondaryMuscles": ["biceps"]}]`))
	})

	records, err := client.BySecondaryMuscle(context.Background(), "biceps", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"biceps"}, records[0].SecondaryMuscles)
}

func TestClient_ByName(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Push-up", r.URL.Query().Get("name"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"Name": "Push-up", "Youtube link": "https://youtu.be/x"}]`))
		})

		record, err := client.ByName(context.Background(), "Push-up")
		require.NoError(t, err)
		assert.Equal(t, "https://youtu.be/x", record.YoutubeLink)
	})

	t.Run("not found", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		})

		_, err := client.ByName(context.Background(), "Nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_ServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.Muscles(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "E300", appErr.Code)
}
