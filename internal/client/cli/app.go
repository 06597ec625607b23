package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/brightfield/sitesurvey/internal/client/api"
	"github.com/brightfield/sitesurvey/internal/client/autosave"
	"github.com/brightfield/sitesurvey/internal/client/config"
	"github.com/brightfield/sitesurvey/internal/client/connectivity"
	"github.com/brightfield/sitesurvey/internal/client/repositories/settings"
	"github.com/brightfield/sitesurvey/internal/client/store"
	syncsvc "github.com/brightfield/sitesurvey/internal/client/sync"
	"github.com/brightfield/sitesurvey/internal/logging"

	_ "modernc.org/sqlite"
)

// App is the interactive survey client: a local store, the backend adapter,
// the connectivity monitor, and the sync orchestrator wired together behind
// a REPL.
type App struct {
	config *config.Config
	logger logging.Logger

	db     *sql.DB
	store  *store.Store
	client *api.HTTPClient
	state  *connectivity.State
	mon    *connectivity.Monitor
	orch   *syncsvc.Orchestrator
	saver  *autosave.Controller

	deviceID string
	reader   *bufio.Reader

	// currentDraft and form hold the survey being edited; the REPL is the
	// only writer.
	currentDraft string
	form         map[string]map[string]any
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, repos, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	st := store.New(db, repos, logger)
	client := api.NewHTTPClient(c.ServerAddr, nil, 0)

	a := &App{
		config: c,
		logger: logger,
		db:     db,
		store:  st,
		client: client,
		reader: bufio.NewReader(os.Stdin),
		form:   map[string]map[string]any{},
	}

	if tok, err := st.Settings().Get(ctx, settings.KeyDeviceToken); err == nil {
		client.SetTokenSource(api.StaticToken(tok))
	}
	if id, err := st.Settings().Get(ctx, settings.KeyDeviceID); err == nil {
		a.deviceID = string(id)
	}

	a.state = connectivity.NewState()
	a.orch = syncsvc.New(st, client, a.state, logger, syncsvc.WithProgress(a.showProgress))
	a.mon = connectivity.NewMonitor(
		&connectivity.PingSignal{Prober: client},
		client,
		a.state,
		a.orch,
		logger,
		connectivity.WithIntervals(c.OnlineCheckInterval, c.QualityCheckInterval),
		connectivity.WithNotify(a.showConnectivity),
	)
	a.saver = autosave.New(st, logger,
		autosave.WithDebounce(c.AutoSaveDebounce),
		autosave.WithStatusFunc(a.showSaveStatus),
	)

	return a, nil
}

func (a *App) isRegistered() bool {
	return a.deviceID != ""
}

// Run starts the connectivity watcher and hands control to the REPL. It
// returns once the user exits; pending edits are flushed on the way out.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.mon.Watch(ctx)

	a.Root(ctx)

	if err := a.saver.Close(context.Background()); err != nil {
		a.logger.Error(ctx, "flushing pending edits", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error(ctx, "closing database", "error", err)
	}
}

func (a *App) showConnectivity(e connectivity.Event) {
	fmt.Printf("\n[%s]\n", e)
}

func (a *App) showSaveStatus(s autosave.Status) {
	switch s {
	case autosave.StatusSaved:
		fmt.Println("\n[saved]")
	case autosave.StatusError:
		fmt.Printf("\n[save failed: %v]\n", a.saver.Err())
	}
}

func (a *App) showProgress(p syncsvc.Progress) {
	if p.Total == 0 {
		return
	}
	fmt.Printf("\rsyncing %d/%d %s", p.Completed, p.Total, p.Current)
	if p.Completed == p.Total {
		fmt.Println()
	}
}
