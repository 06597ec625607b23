package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	parts := []string{}
	if a.currentDraft != "" {
		parts = append(parts, "draft "+shortID(a.currentDraft))
	}
	snap := a.state.Snapshot()
	if snap.Online {
		parts = append(parts, "online")
	} else {
		parts = append(parts, "offline")
	}
	if snap.Syncing {
		parts = append(parts, "syncing")
	}
	if snap.PendingCount > 0 {
		parts = append(parts, fmt.Sprintf("pending=%d", snap.PendingCount))
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Root runs the interactive loop until EOF or an exit command.
func (a *App) Root(ctx context.Context) {

	fmt.Println("Site Survey CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("survey %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isRegistered() {
				fmt.Println("Available commands: new, open <id>, list, set, show, note, attach, photos, rmphoto, save, discard, status, sync, failed, exit")
			} else {
				fmt.Println("Available commands: register, list, exit")
			}

		case "register":
			a.register(ctx)
		case "new":
			a.newSurvey(ctx)
		case "open":
			if len(args) == 0 {
				fmt.Println("Usage: open <draft id>")
				continue
			}
			a.openSurvey(ctx, args[0])
		case "list":
			a.list(ctx)
		case "set":
			a.setField(ctx)
		case "note":
			a.setNote(ctx)
		case "show":
			a.show(ctx)
		case "attach":
			a.attach(ctx)
		case "photos":
			a.photos(ctx)
		case "rmphoto":
			if len(args) == 0 {
				fmt.Println("Usage: rmphoto <attachment id>")
				continue
			}
			a.removePhoto(ctx, args[0])
		case "save":
			a.saveNow(ctx)
		case "discard":
			a.discard(ctx)
		case "status":
			a.status(ctx)
		case "sync":
			a.syncNow(ctx)
		case "failed":
			a.failed(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
