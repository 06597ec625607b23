package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/netx"
)

// DefaultRequestTimeout bounds each backend call issued by the sync layer.
const DefaultRequestTimeout = 15 * time.Second

// HTTPClient implements Client against the backend's JSON API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// NewHTTPClient returns a client for the API at baseURL (no trailing slash).
// A nil TokenSource sends unauthenticated requests.
func NewHTTPClient(baseURL string, tokens TokenSource, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// SetTokenSource swaps the token source after device registration.
func (c *HTTPClient) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

type registerDeviceRequest struct {
	Name       string `json:"name"`
	AccessCode string `json:"access_code"`
}

type registerDeviceResponse struct {
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
}

type createRecordRequest struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type createRecordResponse struct {
	RecordID string `json:"record_id"`
}

type presignUploadRequest struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
}

type presignUploadResponse struct {
	URL         string `json:"url"`
	StoragePath string `json:"storage_path"`
}

type linkAssetRequest struct {
	RecordID    string          `json:"record_id"`
	StoragePath string          `json:"storage_path"`
	Metadata    json.RawMessage `json:"metadata"`
}

type linkAssetResponse struct {
	AssetID string `json:"asset_id"`
}

func (c *HTTPClient) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (c *HTTPClient) RegisterDevice(ctx context.Context, name, accessCode string) (string, string, error) {
	var resp registerDeviceResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/devices", registerDeviceRequest{Name: name, AccessCode: accessCode}, &resp)
	if err != nil {
		return "", "", err
	}
	return resp.DeviceID, resp.Token, nil
}

func (c *HTTPClient) CreateRecord(ctx context.Context, kind string, payload json.RawMessage) (string, error) {
	var resp createRecordResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/records", createRecordRequest{Kind: kind, Payload: payload}, &resp)
	if err != nil {
		return "", err
	}
	return resp.RecordID, nil
}

func (c *HTTPClient) UpdateRecord(ctx context.Context, clientID string, payload json.RawMessage) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v1/records/"+clientID, json.RawMessage(payload), nil)
}

func (c *HTTPClient) DeleteRecord(ctx context.Context, clientID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/records/"+clientID, nil, nil)
}

func (c *HTTPClient) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	var presign presignUploadResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/uploads", presignUploadRequest{Path: path, ContentType: contentType}, &presign)
	if err != nil {
		return "", err
	}

	if err := netx.UploadToPresignedURL(ctx, c.httpc, presign.URL, data, contentType); err != nil {
		return "", classifyUploadErr(err)
	}

	return presign.StoragePath, nil
}

func (c *HTTPClient) LinkAsset(ctx context.Context, remoteRecordID, storagePath string, meta json.RawMessage) (string, error) {
	var resp linkAssetResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/assets", linkAssetRequest{RecordID: remoteRecordID, StoragePath: storagePath, Metadata: meta}, &resp)
	if err != nil {
		return "", err
	}
	return resp.AssetID, nil
}

// doJSON issues one API request and maps the outcome onto the package's
// sentinel errors. out may be nil when no body is expected.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Transport failures and timeouts are ambiguous: the request may or
		// may not have landed, so they classify as retryable.
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, resp.Body); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func classifyStatus(code int, body io.Reader) error {
	if code >= 200 && code <= 299 {
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(body, 4096))
	msg := string(b)

	switch {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, msg)
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, code, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, code, msg)
	}
}

func classifyUploadErr(err error) error {
	var se *netx.StatusError
	if errors.As(err, &se) {
		if se.Code >= 500 || se.Code == http.StatusRequestTimeout || se.Code == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
