package main

import (
	"context"
	"log"

	"github.com/dkazmin/careerpilot/internal/config"
	"github.com/dkazmin/careerpilot/internal/db"
	"github.com/dkazmin/careerpilot/internal/httpapi"
	"github.com/dkazmin/careerpilot/internal/localstore"
	"github.com/dkazmin/careerpilot/internal/store/rabbitmq"
	"github.com/dkazmin/careerpilot/internal/store/redisstore"
	"github.com/dkazmin/careerpilot/internal/trajectory"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	if err := localstore.NewDB(gdb).AutoMigrate(); err != nil {
		log.Fatalf("migrate device store: %v", err)
	}
	if err := gdb.AutoMigrate(&trajectory.Job{}); err != nil {
		log.Fatalf("migrate jobs: %v", err)
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TrajectoryCacheTTL)
	if err := rds.Ping(context.Background()); err != nil {
		log.Printf("redis unavailable, trajectory listings uncached: %v", err)
		rds = nil
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit connect: %v", err)
	}
	defer publisher.Close()

	r := httpapi.NewRouter(gdb, cfg, rds, publisher)

	log.Printf("server listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
