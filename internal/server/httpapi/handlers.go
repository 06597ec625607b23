package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/logging"
	"github.com/gin-gonic/gin"
)

// DeviceService enrolls new devices.
type DeviceService interface {
	Register(ctx context.Context, name, accessCode string) (string, string, error)
}

// RecordService stores synced records and their linked assets.
type RecordService interface {
	Create(ctx context.Context, deviceID, kind string, payload json.RawMessage) (string, error)
	Update(ctx context.Context, deviceID, clientID string, payload json.RawMessage) error
	Delete(ctx context.Context, deviceID, clientID string) error
	LinkAsset(ctx context.Context, deviceID, recordID, storagePath string, meta json.RawMessage) (string, error)
}

// BlobService issues presigned object-storage URLs.
type BlobService interface {
	GetPresignedPutUrl(ctx context.Context, deviceID, path, contentType string) (string, string, error)
}

type httpHandler struct {
	devices   DeviceService
	records   RecordService
	blobs     BlobService
	secretKey []byte
	logger    logging.Logger
}

type registerDeviceRequest struct {
	Name       string `json:"name" binding:"required"`
	AccessCode string `json:"access_code" binding:"required"`
}

type createRecordRequest struct {
	Kind    string          `json:"kind" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

type presignUploadRequest struct {
	Path        string `json:"path" binding:"required"`
	ContentType string `json:"content_type"`
}

type linkAssetRequest struct {
	RecordID    string          `json:"record_id" binding:"required"`
	StoragePath string          `json:"storage_path" binding:"required"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleRegisterDevice(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, token, err := h.devices.Register(c.Request.Context(), req.Name, req.AccessCode)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"device_id": id, "token": token})
}

func (h *httpHandler) handleCreateRecord(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.records.Create(c.Request.Context(), deviceID(c), req.Kind, req.Payload)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record_id": id})
}

func (h *httpHandler) handleUpdateRecord(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload required"})
		return
	}

	err = h.records.Update(c.Request.Context(), deviceID(c), c.Param("clientID"), payload)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleDeleteRecord(c *gin.Context) {
	err := h.records.Delete(c.Request.Context(), deviceID(c), c.Param("clientID"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handlePresignUpload(c *gin.Context) {
	var req presignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, url, err := h.blobs.GetPresignedPutUrl(c.Request.Context(), deviceID(c), req.Path, req.ContentType)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "storage_path": key})
}

func (h *httpHandler) handleLinkAsset(c *gin.Context) {
	var req linkAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.records.LinkAsset(c.Request.Context(), deviceID(c), req.RecordID, req.StoragePath, req.Metadata)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset_id": id})
}

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged and surfaced as a bare 500 so internals do not leak.
func (h *httpHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		if h.logger != nil {
			h.logger.Error(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
