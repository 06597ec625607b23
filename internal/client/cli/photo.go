package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/brightfield/sitesurvey/internal/common"
)

// attach stores a photo from disk against a field of the current draft and
// stages its upload. Works fully offline.
func (a *App) attach(ctx context.Context) {
	if a.currentDraft == "" {
		fmt.Println("No draft open; use 'new' or 'open <id>'")
		return
	}

	section, err := getSimpleText(a.reader, "Section", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	field, err := getSimpleText(a.reader, "Field", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	path, err := getSimpleText(a.reader, "Photo file path", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	existing, err := a.store.ListAttachmentsByField(ctx, a.currentDraft, section, field)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	id, err := a.store.SavePhoto(ctx, a.currentDraft, section, field, len(existing), mimeType, data)
	if err != nil {
		if errors.Is(err, common.ErrAttachmentTooLarge) {
			fmt.Println("Photo is too large; resize it and try again")
			return
		}
		if errors.Is(err, common.ErrQuotaExceeded) {
			fmt.Println("Device storage is full; sync or remove photos to free space")
			return
		}
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Photo attached:", id)
}

func (a *App) photos(ctx context.Context) {
	if a.currentDraft == "" {
		fmt.Println("No draft open")
		return
	}

	section, err := getSimpleText(a.reader, "Section", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	field, err := getSimpleText(a.reader, "Field", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	items, err := a.store.ListAttachmentsByField(ctx, a.currentDraft, section, field)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if len(items) == 0 {
		fmt.Println("No photos for this field")
		return
	}
	for _, item := range items {
		fmt.Printf("%s  %s  %d bytes  %s\n", item.ID, item.MIMEType, item.Size, item.UploadStatus)
	}
}

func (a *App) removePhoto(ctx context.Context, id string) {
	if err := a.store.RemoveAttachment(ctx, id); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Photo removed")
}
