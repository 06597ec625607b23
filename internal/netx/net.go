// Package netx contains small HTTP helpers shared by the sync layer,
// primarily the presigned-URL blob upload used for attachment delivery.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError reports a non-2xx response so callers can classify the failure
// by HTTP status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// UploadToPresignedURL PUTs data to a presigned object-storage URL.
// A nil httpc falls back to http.DefaultClient. Non-2xx responses are
// returned as *StatusError.
func UploadToPresignedURL(ctx context.Context, httpc *http.Client, url string, data []byte, contentType string) error {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return nil
}
