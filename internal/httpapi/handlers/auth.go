package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/dkazmin/careerpilot/internal/common"
	"github.com/dkazmin/careerpilot/internal/localstore"
)

// Login proxies the OAuth2 password form to the auth backend. On success the
// access token is also persisted in the device store (when the browser sent a
// device id), so profile calls can fall back to it.
func (h *Handler) Login(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "invalid form body")
		return
	}
	form := url.Values{}
	for k, v := range c.Request.PostForm {
		form[k] = v
	}
	if form.Get("username") == "" || form.Get("password") == "" {
		common.Fail(c, http.StatusBadRequest, 10003, "username and password are required")
		return
	}

	res, err := h.Backend.Login(c.Request.Context(), form)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 20005, "auth service unavailable")
		return
	}

	if deviceID := c.GetHeader(DeviceIDHeader); deviceID != "" && res.Status == http.StatusOK {
		var payload struct {
			AccessToken string `json:"access_token"`
		}
		if json.Unmarshal(res.Body, &payload) == nil && payload.AccessToken != "" {
			store := h.Stores.ForDevice(deviceID)
			if err := store.Set(c.Request.Context(), localstore.KeyAccessToken, payload.AccessToken); err != nil {
				log.Printf("login: persist access token for device %s: %v", deviceID, err)
			}
		}
	}

	forwardProxy(c, res.Status, res.Body)
}

func (h *Handler) Register(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid request body")
		return
	}
	res, err := h.Backend.Register(c.Request.Context(), body)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 20005, "auth service unavailable")
		return
	}
	forwardProxy(c, res.Status, res.Body)
}

// Logout drops the stored access token for the calling device. Sessions and
// cached trajectories are untouched.
func (h *Handler) Logout(c *gin.Context) {
	deviceID, ok := deviceIDFromRequest(c)
	if !ok {
		return
	}
	store := h.Stores.ForDevice(deviceID)
	if err := store.Remove(c.Request.Context(), localstore.KeyAccessToken); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
		return
	}
	common.OK(c, gin.H{"logged_out": true})
}
