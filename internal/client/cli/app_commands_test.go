package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brightfield/sitesurvey/internal/client/api"
	"github.com/brightfield/sitesurvey/internal/client/autosave"
	"github.com/brightfield/sitesurvey/internal/client/connectivity"
	"github.com/brightfield/sitesurvey/internal/client/repositories/settings"
	"github.com/brightfield/sitesurvey/internal/client/store"
	"github.com/brightfield/sitesurvey/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "survey.db")
	db, repos, err := store.InitDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st := store.New(db, repos, testLogger())
	a := &App{
		logger: testLogger(),
		db:     db,
		store:  st,
		state:  connectivity.NewState(),
		reader: bufio.NewReader(strings.NewReader("")),
		form:   map[string]map[string]any{},
	}
	a.saver = autosave.New(st, testLogger(), autosave.WithDebounce(time.Hour))
	t.Cleanup(func() { _ = a.saver.Close(context.Background()) })
	return a
}

// stubInput replaces the interactive input seams with a canned answer queue.
func stubInput(t *testing.T, answers ...string) {
	t.Helper()
	origText, origSecret := getSimpleText, getSecret
	t.Cleanup(func() { getSimpleText, getSecret = origText, origSecret })

	next := func() string {
		require.NotEmpty(t, answers, "ran out of stubbed answers")
		a := answers[0]
		answers = answers[1:]
		return a
	}
	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return next(), nil }
	getSecret = func(string, io.Writer) ([]byte, error) { return []byte(next()), nil }
}

func TestNewSurvey_CreatesDurableDraft(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	stubInput(t, "Acme HQ rooftop")
	a.newSurvey(ctx)

	require.NotEmpty(t, a.currentDraft)

	draft, err := a.store.GetDraft(ctx, a.currentDraft)
	require.NoError(t, err)
	assert.JSONEq(t, `{"site":{"name":"Acme HQ rooftop"}}`, string(draft.Snapshot))
}

func TestSetField_WritesThroughAutoSaver(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	stubInput(t, "Acme HQ rooftop", "roof", "pitch", "30")
	a.newSurvey(ctx)
	a.setField(ctx)

	require.NoError(t, a.saver.SaveNow(ctx))

	draft, err := a.store.GetDraft(ctx, a.currentDraft)
	require.NoError(t, err)

	var form map[string]map[string]any
	require.NoError(t, json.Unmarshal(draft.Snapshot, &form))
	assert.Equal(t, "30", form["roof"]["pitch"])
}

func TestOpenSurvey_RestoresFormState(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	stubInput(t, "Acme HQ rooftop")
	a.newSurvey(ctx)
	id := a.currentDraft

	a.currentDraft = ""
	a.form = map[string]map[string]any{}

	a.openSurvey(ctx, id)
	assert.Equal(t, id, a.currentDraft)
	assert.Equal(t, "Acme HQ rooftop", a.form["site"]["name"])
}

func TestRegister_PersistsDeviceCredentials(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/devices", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"device_id": "dev-7", "token": "tok-7"})
	}))
	defer srv.Close()

	a.client = api.NewHTTPClient(srv.URL, nil, 0)

	stubInput(t, "field-tablet-3", "CODE-123")
	a.register(ctx)

	assert.True(t, a.isRegistered())
	assert.Equal(t, "dev-7", a.deviceID)

	tok, err := a.store.Settings().Get(ctx, settings.KeyDeviceToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-7", string(tok))
}
