package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dkazmin/careerpilot/internal/common"
	"github.com/dkazmin/careerpilot/internal/gateway"
	"github.com/dkazmin/careerpilot/internal/interview"
	"github.com/dkazmin/careerpilot/internal/trajectory"
)

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type buildTrajectoryRequest struct {
	WeeklyHours           int `json:"weekly_hours"`
	TotalMonths           int `json:"total_months"`
	TargetPositionsLimit  int `json:"target_positions_limit"`
	CurrentPositionsLimit int `json:"current_positions_limit"`
}

func (h *Handler) managerFor(c *gin.Context) (*interview.Manager, bool) {
	deviceID, ok := deviceIDFromRequest(c)
	if !ok {
		return nil, false
	}
	m, err := h.Registry.ForDevice(c.Request.Context(), deviceID)
	if err != nil {
		writeSessionError(c, err)
		return nil, false
	}
	return m, true
}

// GetSession returns the current snapshot without touching the coaching service.
func (h *Handler) GetSession(c *gin.Context) {
	m, ok := h.managerFor(c)
	if !ok {
		return
	}
	common.OK(c, m.Snapshot())
}

func (h *Handler) StartSession(c *gin.Context) {
	m, ok := h.managerFor(c)
	if !ok {
		return
	}
	snap, err := m.Start(c.Request.Context())
	if err != nil {
		writeSessionError(c, err)
		return
	}
	common.OK(c, snap)
}

// ResumeSession re-syncs local state from the coaching service. The registry
// already resumes on first access; this endpoint forces a fresh
// reconciliation, e.g. after the browser regains connectivity.
func (h *Handler) ResumeSession(c *gin.Context) {
	m, ok := h.managerFor(c)
	if !ok {
		return
	}
	snap, err := m.Resume(c.Request.Context())
	if err != nil {
		writeSessionError(c, err)
		return
	}
	common.OK(c, snap)
}

func (h *Handler) SendSessionMessage(c *gin.Context) {
	m, ok := h.managerFor(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "text is required")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		common.Fail(c, http.StatusBadRequest, 10001, "text is required")
		return
	}
	snap, err := m.SendMessage(c.Request.Context(), text)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	common.OK(c, snap)
}

func (h *Handler) BuildSessionTrajectory(c *gin.Context) {
	m, ok := h.managerFor(c)
	if !ok {
		return
	}
	var req buildTrajectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid request body")
		return
	}
	snap, err := m.BuildTrajectory(c.Request.Context(), trajectory.BuildRequest{
		WeeklyHours:           req.WeeklyHours,
		TotalMonths:           req.TotalMonths,
		TargetPositionsLimit:  req.TargetPositionsLimit,
		CurrentPositionsLimit: req.CurrentPositionsLimit,
	})
	if err != nil {
		writeSessionError(c, err)
		return
	}
	common.OK(c, snap)
}

func (h *Handler) ResetSession(c *gin.Context) {
	m, ok := h.managerFor(c)
	if !ok {
		return
	}
	snap, err := m.Reset(c.Request.Context())
	if err != nil {
		writeSessionError(c, err)
		return
	}
	common.OK(c, snap)
}

func writeSessionError(c *gin.Context, err error) {
	var buildErr *gateway.BuildFailedError
	switch {
	case errors.Is(err, interview.ErrInvalidState):
		common.Fail(c, http.StatusConflict, 20001, err.Error())
	case errors.Is(err, interview.ErrStaleResponse):
		common.Fail(c, http.StatusConflict, 20002, "session changed while request was in flight")
	case errors.As(err, &buildErr):
		common.Fail(c, http.StatusUnprocessableEntity, 20003, buildErr.Reason)
	case errors.Is(err, gateway.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 20004, "session not found")
	case errors.Is(err, gateway.ErrGatewayUnavailable), errors.Is(err, gateway.ErrUnexpectedResponse):
		common.Fail(c, http.StatusBadGateway, 20005, "coaching service unavailable")
	default:
		common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
	}
}
