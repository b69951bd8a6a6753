package handlers

import (
	"gorm.io/gorm"

	"github.com/dkazmin/careerpilot/internal/config"
	"github.com/dkazmin/careerpilot/internal/gateway"
	"github.com/dkazmin/careerpilot/internal/interview"
	"github.com/dkazmin/careerpilot/internal/localstore"
	"github.com/dkazmin/careerpilot/internal/store/redisstore"
	"github.com/dkazmin/careerpilot/internal/trajectory"
)

type Handler struct {
	Cfg config.Config

	Backend      *gateway.BackendClient
	Uploads      *gateway.UploadClient
	Trajectories *gateway.TrajectoryClient

	Stores   *localstore.DB
	Registry *interview.Registry
	Jobs     *trajectory.Service

	// Cache may be nil; listings then always hit the remote store.
	Cache *redisstore.Store
}

func NewHandler(cfg config.Config, db *gorm.DB, cache *redisstore.Store, publisher trajectory.Publisher) *Handler {
	sessions := gateway.NewSessionClient(cfg.MLAPIURL, cfg.GatewayTimeout)
	trajectories := gateway.NewTrajectoryClient(cfg.MLAPIURL, cfg.GatewayTimeout)
	stores := localstore.NewDB(db)

	return &Handler{
		Cfg:          cfg,
		Backend:      gateway.NewBackendClient(cfg.BackendAPIURL, cfg.GatewayTimeout),
		Uploads:      gateway.NewUploadClient(cfg.MLAPIURL, cfg.GatewayTimeout),
		Trajectories: trajectories,
		Stores:       stores,
		Registry:     interview.NewRegistry(stores.ForDevice, sessions, trajectories),
		Jobs:         trajectory.NewService(trajectory.NewRepo(db), trajectories, publisher),
		Cache:        cache,
	}
}
