package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/funvill/cultural-archiver-sub005/api"
	"github.com/funvill/cultural-archiver-sub005/cluster"
	"github.com/funvill/cultural-archiver-sub005/config"
	"github.com/funvill/cultural-archiver-sub005/runner"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	seedPoints := flag.Int("seed-points", 0, "generate and save a synthetic artwork set of this size on startup")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	manager, err := runner.NewManager(cfg.DataDir, cfg.MaxLoadedIndexes, log)
	if err != nil {
		log.Fatal("failed to start index manager", zap.Error(err))
	}
	defer manager.Close()

	if *seedPoints > 0 {
		bounds := cluster.Bounds{MinX: -125, MinY: 25, MaxX: -67, MaxY: 49}
		opts := cluster.Options{Radius: cfg.Cluster.Radius, MinPoints: cfg.Cluster.MinPoints}
		info, err := manager.Create(*seedPoints, bounds, opts)
		if err != nil {
			log.Fatal("failed to seed artwork set", zap.Error(err))
		}
		log.Info("seeded artwork set", zap.String("id", info.ID), zap.Int("artworks", info.NumArtworks))
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewServer(manager, log).Router(),
	}

	go func() {
		log.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
