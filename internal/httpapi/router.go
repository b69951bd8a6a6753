package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dkazmin/careerpilot/internal/common"
	"github.com/dkazmin/careerpilot/internal/config"
	"github.com/dkazmin/careerpilot/internal/httpapi/handlers"
	"github.com/dkazmin/careerpilot/internal/httpapi/middleware"
	"github.com/dkazmin/careerpilot/internal/store/redisstore"
	"github.com/dkazmin/careerpilot/internal/trajectory"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, publisher trajectory.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(cfg, db, rds, publisher)

	r.GET("/ping", h.Ping)

	// device bootstrap
	r.POST("/api/device", h.IssueDevice)

	// auth and profile proxies
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/logout", h.Logout)
	r.GET("/api/profile/me", h.GetProfile)
	r.PUT("/api/profile/me", h.UpdateProfile)
	r.POST("/api/profile/upload", h.UploadResume)

	// interview session (device scoped, X-Device-ID required)
	session := r.Group("/api/session")
	session.GET("", h.GetSession)
	session.POST("/start", h.StartSession)
	session.POST("/resume", h.ResumeSession)
	session.POST("/message", h.SendSessionMessage)
	session.POST("/trajectory", h.BuildSessionTrajectory)
	session.POST("/reset", h.ResetSession)

	// JWT required
	authGroup := r.Group("/api")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/trajectory/user/:user_id", h.ListUserTrajectories)
	authGroup.POST("/trajectory/jobs", h.CreateTrajectoryJob)
	authGroup.GET("/trajectory/jobs/:job_id", h.GetTrajectoryJob)

	return r
}
