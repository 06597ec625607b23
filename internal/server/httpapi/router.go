// Package httpapi exposes the backend over HTTP/JSON: device enrollment,
// record sync, presigned uploads, and asset linking.
package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/logging"
	"github.com/brightfield/sitesurvey/internal/server/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const deviceIDContextKey = "sitesurvey_device_id"

var (
	errMissingDeviceService = errors.New("device service dependency required")
	errMissingRecordService = errors.New("record service dependency required")
	errMissingBlobService   = errors.New("blob service dependency required")
)

// Dependencies carries everything the handler needs; all services are
// required.
type Dependencies struct {
	Devices   DeviceService
	Records   RecordService
	Blobs     BlobService
	SecretKey []byte
	Logger    logging.Logger
}

// NewHTTPHandler assembles the gin engine with CORS, recovery, and the API
// routes. Everything under /api/v1 except device enrollment requires a valid
// device token.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Devices == nil {
		return nil, errMissingDeviceService
	}
	if deps.Records == nil {
		return nil, errMissingRecordService
	}
	if deps.Blobs == nil {
		return nil, errMissingBlobService
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		devices:   deps.Devices,
		records:   deps.Records,
		blobs:     deps.Blobs,
		secretKey: deps.SecretKey,
		logger:    deps.Logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.POST("/api/v1/devices", handler.handleRegisterDevice)

	protected := router.Group("/api/v1")
	protected.Use(handler.authorizeRequest)
	protected.POST("/records", handler.handleCreateRecord)
	protected.PUT("/records/:clientID", handler.handleUpdateRecord)
	protected.DELETE("/records/:clientID", handler.handleDeleteRecord)
	protected.POST("/uploads", handler.handlePresignUpload)
	protected.POST("/assets", handler.handleLinkAsset)

	return router, nil
}

// authorizeRequest validates the bearer token and stashes the device id in
// the request context.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing or invalid"})
		return
	}

	deviceID, err := auth.GetDeviceIDFromToken(strings.TrimPrefix(header, common.BearerPrefix), h.secretKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.Set(deviceIDContextKey, deviceID)
	c.Next()
}

func deviceID(c *gin.Context) string {
	return c.GetString(deviceIDContextKey)
}
