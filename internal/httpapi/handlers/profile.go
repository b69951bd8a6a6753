package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dkazmin/careerpilot/internal/common"
	"github.com/dkazmin/careerpilot/internal/localstore"
)

// bearerFor resolves the token to use for an authenticated proxy call: an
// explicit Authorization header wins, otherwise the token stored for the
// calling device at login time is used.
func (h *Handler) bearerFor(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return header
	}
	deviceID := c.GetHeader(DeviceIDHeader)
	if deviceID == "" {
		return ""
	}
	token, ok, err := h.Stores.ForDevice(deviceID).Get(c.Request.Context(), localstore.KeyAccessToken)
	if err != nil || !ok {
		return ""
	}
	return "Bearer " + token
}

func (h *Handler) GetProfile(c *gin.Context) {
	res, err := h.Backend.GetProfile(c.Request.Context(), h.bearerFor(c))
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 20005, "profile service unavailable")
		return
	}
	forwardProxy(c, res.Status, res.Body)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid request body")
		return
	}
	res, err := h.Backend.UpdateProfile(c.Request.Context(), h.bearerFor(c), body)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 20005, "profile service unavailable")
		return
	}
	forwardProxy(c, res.Status, res.Body)
}

// UploadResume forwards a resume to the parsing service. Only PDF files are
// accepted; the check is done here so obviously wrong files never leave the
// process.
func (h *Handler) UploadResume(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "file is required")
		return
	}
	if !isPDF(fileHeader.Filename, fileHeader.Header.Get("Content-Type")) {
		common.Fail(c, http.StatusBadRequest, 10005, "Only PDF is allowed")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "file is required")
		return
	}
	defer file.Close()

	res, err := h.Uploads.UploadResume(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 20005, "upload service unavailable")
		return
	}
	forwardProxy(c, res.Status, res.Body)
}

func isPDF(filename, contentType string) bool {
	if contentType == "application/pdf" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
