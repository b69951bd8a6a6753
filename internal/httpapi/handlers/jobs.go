package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dkazmin/careerpilot/internal/common"
	"github.com/dkazmin/careerpilot/internal/trajectory"
)

type createJobRequest struct {
	SessionID             string `json:"session_id" binding:"required"`
	WeeklyHours           int    `json:"weekly_hours"`
	TotalMonths           int    `json:"total_months"`
	TargetPositionsLimit  int    `json:"target_positions_limit"`
	CurrentPositionsLimit int    `json:"current_positions_limit"`
}

// CreateTrajectoryJob enqueues an async build. The response carries the job
// id; the caller polls GetTrajectoryJob until the worker finishes.
func (h *Handler) CreateTrajectoryJob(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "authorization required")
		return
	}
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10006, "session_id is required")
		return
	}

	job, err := h.Jobs.EnqueueBuild(c.Request.Context(), uid, trajectory.BuildRequest{
		SessionID:             req.SessionID,
		WeeklyHours:           req.WeeklyHours,
		TotalMonths:           req.TotalMonths,
		TargetPositionsLimit:  req.TargetPositionsLimit,
		CurrentPositionsLimit: req.CurrentPositionsLimit,
	})
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50000, "failed to enqueue job")
		return
	}
	common.OK(c, job)
}

func (h *Handler) GetTrajectoryJob(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "authorization required")
		return
	}
	job, err := h.Jobs.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
		return
	}
	if job.UserID != uid {
		common.Fail(c, http.StatusForbidden, 40301, "cannot access another user's job")
		return
	}
	// A finished build makes any cached listing stale.
	if job.Status == trajectory.JobSucceeded && h.Cache != nil {
		if err := h.Cache.InvalidateUserTrajectories(c.Request.Context(), uid); err != nil {
			log.Printf("jobs: invalidate listing cache for user %s: %v", uid, err)
		}
	}
	common.OK(c, job)
}
