package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkazmin/careerpilot/internal/common"
)

// ListUserTrajectories returns every trajectory built for a user. Requires
// auth; a user may only list their own. A user with no trajectories gets an
// empty list, never a 404.
func (h *Handler) ListUserTrajectories(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "authorization required")
		return
	}
	target := c.Param("user_id")
	if target != uid {
		common.Fail(c, http.StatusForbidden, 40301, "cannot access another user's trajectories")
		return
	}

	ctx := c.Request.Context()
	if h.Cache != nil {
		if list, hit, err := h.Cache.GetUserTrajectories(ctx, uid); err == nil && hit {
			common.OK(c, list)
			return
		}
	}

	list, err := h.Trajectories.ListByUser(ctx, uid)
	if err != nil {
		writeSessionError(c, err)
		return
	}

	if h.Cache != nil {
		if err := h.Cache.SetUserTrajectories(ctx, uid, list); err != nil {
			log.Printf("trajectories: cache user %s: %v", uid, err)
		}
	}
	common.OK(c, list)
}
