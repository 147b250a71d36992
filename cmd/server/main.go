// Package main is the entry point for the adboard server.
//
// main stays minimal: read configuration from the environment, build the
// logger, hand both to internal/server. All actual wiring lives there.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/adboard/internal/auth"
	"github.com/sakif/adboard/internal/server"
)

// Environment variables:
//
//	PORT        listen port                   (default 8080)
//	DB_PATH     SQLite database file          (default data/adboard.db)
//	UPLOAD_DIR  stored photo directory        (default data/uploads)
//	JWT_SECRET  HMAC signing key, required    (e.g. openssl rand -hex 32)
//	TOKEN_TTL   token lifetime, Go duration   (default 24h)
//	BCRYPT_COST bcrypt work factor            (default 12)
//	LOG_LEVEL   debug|info|warn|error         (default info)
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/adboard.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	uploadDir := "data/uploads"
	if envDir := os.Getenv("UPLOAD_DIR"); envDir != "" {
		uploadDir = envDir
	}

	// Every endpoint behind the guard depends on this secret. Refuse to
	// start without one rather than limp along issuing unverifiable tokens.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set — generate one with: openssl rand -hex 32")
		os.Exit(1)
	}

	tokenTTL := auth.DefaultTokenTTL
	if envTTL := os.Getenv("TOKEN_TTL"); envTTL != "" {
		ttl, err := time.ParseDuration(envTTL)
		if err != nil || ttl <= 0 {
			logger.Error("invalid TOKEN_TTL value", slog.String("value", envTTL))
			os.Exit(1)
		}
		tokenTTL = ttl
	}

	bcryptCost := auth.DefaultCost
	if envCost := os.Getenv("BCRYPT_COST"); envCost != "" {
		cost, err := strconv.Atoi(envCost)
		if err != nil {
			logger.Error("invalid BCRYPT_COST value", slog.String("value", envCost))
			os.Exit(1)
		}
		bcryptCost = cost
	}

	cfg := server.Config{
		Port:       port,
		DBPath:     dbPath,
		UploadDir:  uploadDir,
		JWTSecret:  jwtSecret,
		TokenTTL:   tokenTTL,
		BcryptCost: bcryptCost,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
