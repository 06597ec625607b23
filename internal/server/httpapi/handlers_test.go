package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeviceService struct {
	lastName string
	lastCode string
	err      error
}

func (f *fakeDeviceService) Register(_ context.Context, name, accessCode string) (string, string, error) {
	f.lastName = name
	f.lastCode = accessCode
	if f.err != nil {
		return "", "", f.err
	}
	return "dev-1", "tok-1", nil
}

type fakeRecordService struct {
	created  []string
	updated  []string
	deleted  []string
	linked   []string
	deviceID string
	err      error
}

func (f *fakeRecordService) Create(_ context.Context, deviceID, kind string, payload json.RawMessage) (string, error) {
	f.deviceID = deviceID
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, fmt.Sprintf("%s %s", kind, payload))
	return "rec-1", nil
}

func (f *fakeRecordService) Update(_ context.Context, deviceID, clientID string, payload json.RawMessage) error {
	f.deviceID = deviceID
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, fmt.Sprintf("%s %s", clientID, payload))
	return nil
}

func (f *fakeRecordService) Delete(_ context.Context, deviceID, clientID string) error {
	f.deviceID = deviceID
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, clientID)
	return nil
}

func (f *fakeRecordService) LinkAsset(_ context.Context, deviceID, recordID, storagePath string, _ json.RawMessage) (string, error) {
	f.deviceID = deviceID
	if f.err != nil {
		return "", f.err
	}
	f.linked = append(f.linked, recordID+" "+storagePath)
	return "asset-1", nil
}

type fakeBlobService struct {
	err error
}

func (f *fakeBlobService) GetPresignedPutUrl(_ context.Context, deviceID, path, contentType string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	key := "devices/" + deviceID + "/" + path
	return key, "https://storage.example/put/" + key + "?type=" + contentType, nil
}

var testSecret = []byte("handler-test-secret")

type testEnv struct {
	server  *httptest.Server
	devices *fakeDeviceService
	records *fakeRecordService
	blobs   *fakeBlobService
	token   string
}

func setupHandler(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		devices: &fakeDeviceService{},
		records: &fakeRecordService{},
		blobs:   &fakeBlobService{},
	}

	handler, err := NewHTTPHandler(Dependencies{
		Devices:   env.devices,
		Records:   env.records,
		Blobs:     env.blobs,
		SecretKey: testSecret,
	})
	require.NoError(t, err)

	env.server = httptest.NewServer(handler)
	t.Cleanup(env.server.Close)

	env.token, err = auth.GenerateToken("dev-1", testSecret, time.Hour)
	require.NoError(t, err)

	return env
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterDevice(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodPost, "/api/v1/devices", `{"name":"tablet-3","access_code":"let-me-in"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "dev-1", body["device_id"])
	assert.Equal(t, "tok-1", body["token"])
	assert.Equal(t, "tablet-3", env.devices.lastName)
	assert.Equal(t, "let-me-in", env.devices.lastCode)
}

func TestRegisterDevice_WrongAccessCode(t *testing.T) {
	env := setupHandler(t)
	env.devices.err = fmt.Errorf("access code mismatch: %w", common.ErrUnauthorized)

	resp := env.do(t, http.MethodPost, "/api/v1/devices", `{"name":"tablet-3","access_code":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterDevice_MissingFields(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodPost, "/api/v1/devices", `{"name":"tablet-3"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := setupHandler(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/records"},
		{http.MethodPut, "/api/v1/records/d1"},
		{http.MethodDelete, "/api/v1/records/d1"},
		{http.MethodPost, "/api/v1/uploads"},
		{http.MethodPost, "/api/v1/assets"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := env.do(t, tc.method, tc.path, `{}`, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Empty(t, env.records.deviceID)
		})
	}
}

func TestProtectedRoutes_RejectExpiredToken(t *testing.T) {
	env := setupHandler(t)

	expired, err := auth.GenerateToken("dev-1", testSecret, -time.Minute)
	require.NoError(t, err)

	resp := env.do(t, http.MethodPost, "/api/v1/records", `{"kind":"survey","payload":{"client_id":"d1"}}`, expired)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateRecord(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodPost, "/api/v1/records", `{"kind":"survey","payload":{"client_id":"d1"}}`, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "rec-1", body["record_id"])
	assert.Equal(t, "dev-1", env.records.deviceID)
	require.Len(t, env.records.created, 1)
	assert.True(t, strings.HasPrefix(env.records.created[0], "survey "))
}

func TestUpdateRecord_PassesRawPayload(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodPut, "/api/v1/records/d1", `{"client_id":"d1","v":2}`, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, env.records.updated, 1)
	assert.Equal(t, `d1 {"client_id":"d1","v":2}`, env.records.updated[0])
}

func TestUpdateRecord_NotFound(t *testing.T) {
	env := setupHandler(t)
	env.records.err = fmt.Errorf("record d1: %w", common.ErrNotFound)

	resp := env.do(t, http.MethodPut, "/api/v1/records/d1", `{"client_id":"d1"}`, env.token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteRecord(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodDelete, "/api/v1/records/d1", "", env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"d1"}, env.records.deleted)
}

func TestPresignUpload_ScopesKeyToDevice(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodPost, "/api/v1/uploads", `{"path":"drafts/d1/roof/photos/a1","content_type":"image/jpeg"}`, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "devices/dev-1/drafts/d1/roof/photos/a1", body["storage_path"])
	assert.Contains(t, body["url"], "type=image/jpeg")
}

func TestPresignUpload_RejectsBadPath(t *testing.T) {
	env := setupHandler(t)
	env.blobs.err = fmt.Errorf("storage path escapes device prefix: %w", common.ErrInvalidInput)

	resp := env.do(t, http.MethodPost, "/api/v1/uploads", `{"path":"../dev-2/blob"}`, env.token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLinkAsset(t *testing.T) {
	env := setupHandler(t)

	resp := env.do(t, http.MethodPost, "/api/v1/assets", `{"record_id":"rec-1","storage_path":"drafts/d1/roof/photos/a1","metadata":{"section":"roof"}}`, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "asset-1", body["asset_id"])
	assert.Equal(t, []string{"rec-1 drafts/d1/roof/photos/a1"}, env.records.linked)
}

func TestNewHTTPHandler_RequiresServices(t *testing.T) {
	_, err := NewHTTPHandler(Dependencies{})
	assert.Error(t, err)
}
