package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dkazmin/careerpilot/internal/common"
	"github.com/dkazmin/careerpilot/internal/httpapi/middleware"
)

const DeviceIDHeader = "X-Device-ID"

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"status": "ok"})
}

// IssueDevice mints a device id for a fresh browser; the UI persists it and
// sends it back on every session call.
func (h *Handler) IssueDevice(c *gin.Context) {
	common.OK(c, gin.H{"device_id": uuid.NewString()})
}

func deviceIDFromRequest(c *gin.Context) (string, bool) {
	id := c.GetHeader(DeviceIDHeader)
	if id == "" {
		common.Fail(c, http.StatusBadRequest, 10010, "X-Device-ID header required")
		return "", false
	}
	return id, true
}

func userIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// forwardProxy replays an upstream response 1:1.
func forwardProxy(c *gin.Context, status int, body []byte) {
	c.Data(status, "application/json", body)
}
