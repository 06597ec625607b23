package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/common"
)

func (a *App) status(ctx context.Context) {
	snap := a.state.Snapshot()

	online := "offline"
	if snap.Online {
		online = "online"
	}
	fmt.Printf("connection: %s (%s)\n", online, snap.Quality)

	pending, err := a.store.PendingCount(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Printf("pending changes: %d\n", pending)

	if !snap.LastSyncAttempt.IsZero() {
		fmt.Printf("last sync attempt: %s\n", snap.LastSyncAttempt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("auto-save: %s\n", a.saver.Status())
}

func (a *App) syncNow(ctx context.Context) {
	res, err := a.orch.Run(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			fmt.Println("Sync already running")
			return
		}
		fmt.Println(err.Error())
		return
	}
	fmt.Printf("synced %d, failed %d, remaining %d\n", res.Uploaded, res.Failed, res.Remaining)
}

// failed lists dead-letter entries so a technician can report them; the
// entries stay put until support clears them.
func (a *App) failed(ctx context.Context) {
	dead, err := a.store.DeadLetters(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if len(dead) == 0 {
		fmt.Println("No failed changes")
		return
	}
	for _, e := range dead {
		fmt.Printf("#%d  %s %s  retries=%d  %s\n", e.ID, e.Kind, e.TargetID, e.RetryCount, e.LastError)
	}
}
