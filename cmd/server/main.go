package main

import (
	"fmt"
	"log"

	"skynet-api/internal/config"
	"skynet-api/internal/database"
	"skynet-api/internal/logger"
	"skynet-api/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.Open(cfg, zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}

	r := server.NewRouter(cfg, db, zl)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	zl.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
