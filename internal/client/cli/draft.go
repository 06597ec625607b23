package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// newSurvey creates a fresh draft and makes it current. The first save goes
// through the store immediately so the draft exists even if the app dies
// right after.
func (a *App) newSurvey(ctx context.Context) {
	site, err := getSimpleText(a.reader, "Enter site name", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	a.currentDraft = uuid.NewString()
	a.form = map[string]map[string]any{
		"site": {"name": site},
	}

	if _, err := a.store.SaveFormData(ctx, a.currentDraft, a.form, false); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Created draft", a.currentDraft)
}

// openSurvey loads an existing draft into the editor.
func (a *App) openSurvey(ctx context.Context, id string) {
	draft, err := a.store.GetDraft(ctx, id)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	var form map[string]map[string]any
	if err := json.Unmarshal(draft.Snapshot, &form); err != nil {
		fmt.Println(err.Error())
		return
	}

	a.currentDraft = draft.ID
	a.form = form
	fmt.Println("Opened draft", draft.ID)
}

func (a *App) list(ctx context.Context) {
	drafts, err := a.store.ListDrafts(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if len(drafts) == 0 {
		fmt.Println("No drafts yet")
		return
	}
	for _, d := range drafts {
		fmt.Printf("%s  %s  updated %s\n", d.ID, d.SyncStatus, d.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

// setField records one field edit and lets the auto-save debounce decide
// when to write.
func (a *App) setField(ctx context.Context) {
	if a.currentDraft == "" {
		fmt.Println("No draft open; use 'new' or 'open <id>'")
		return
	}

	section, err := getSimpleText(a.reader, "Section (e.g. roof, electrical)", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	field, err := getSimpleText(a.reader, "Field", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	value, err := getSimpleText(a.reader, "Value", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	if a.form[section] == nil {
		a.form[section] = map[string]any{}
	}
	a.form[section][field] = value

	a.saver.OnChange(a.currentDraft, cloneForm(a.form))
}

// setNote captures a multi-line note into the notes section.
func (a *App) setNote(ctx context.Context) {
	if a.currentDraft == "" {
		fmt.Println("No draft open; use 'new' or 'open <id>'")
		return
	}

	text, err := GetMultiline(a.reader, "Enter note", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	if a.form["notes"] == nil {
		a.form["notes"] = map[string]any{}
	}
	a.form["notes"]["text"] = text

	a.saver.OnChange(a.currentDraft, cloneForm(a.form))
}

func (a *App) show(ctx context.Context) {
	if a.currentDraft == "" {
		fmt.Println("No draft open")
		return
	}
	draft, err := a.store.GetDraft(ctx, a.currentDraft)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	pretty, err := json.MarshalIndent(json.RawMessage(draft.Snapshot), "", "  ")
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Printf("draft %s (%s)\n%s\n", draft.ID, draft.SyncStatus, pretty)
}

func (a *App) saveNow(ctx context.Context) {
	if err := a.saver.SaveNow(ctx); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Saved")
}

// discard flushes nothing: unsaved edits die with the draft.
func (a *App) discard(ctx context.Context) {
	if a.currentDraft == "" {
		fmt.Println("No draft open")
		return
	}
	confirm, err := getSimpleText(a.reader, "Discard draft "+a.currentDraft+"? (y/n)", os.Stdout)
	if err != nil || confirm != "y" {
		return
	}
	if err := a.store.DiscardDraft(ctx, a.currentDraft); err != nil {
		fmt.Println(err.Error())
		return
	}
	a.currentDraft = ""
	a.form = map[string]map[string]any{}
	fmt.Println("Draft discarded")
}

// cloneForm deep-copies the two-level form map so a snapshot handed to the
// auto-saver is immune to later edits.
func cloneForm(form map[string]map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(form))
	for section, fields := range form {
		fc := make(map[string]any, len(fields))
		for k, v := range fields {
			fc[k] = v
		}
		out[section] = fc
	}
	return out
}
