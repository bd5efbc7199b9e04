package main

import (
	"context"
	"log"

	"dealdocs-be/internal/bootstrap"
	"dealdocs-be/internal/config"
	"dealdocs-be/internal/server"
	"dealdocs-be/internal/tracer"
	"dealdocs-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	if err := container.IngestQueue.Start(context.Background()); err != nil {
		log.Panicf("Unable to start ingestion queue: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
