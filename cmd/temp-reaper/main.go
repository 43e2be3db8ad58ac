package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/princekumarofficial/dropzone-service/internal/chunkstore"
	"github.com/princekumarofficial/dropzone-service/internal/config"
	"github.com/princekumarofficial/dropzone-service/internal/reaper"
)

func main() {
	once := flag.Bool("once", false, "Sweep once and exit")

	// Load config
	cfg := config.MustLoad()
	if !flag.Parsed() {
		flag.Parse()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	store, err := chunkstore.New(cfg.Upload.TempDir, cfg.Upload.MaxFileSize, chunkstore.NewLocalLocker(cfg.Upload.LockWait), cfg.Upload.LockTTL)
	if err != nil {
		log.Fatal("Failed to open temp dir:", err)
	}

	r := reaper.New(store, cfg.Reaper.MaxAge, logger)

	// Run once immediately on startup
	removed := r.RunOnce()
	if *once {
		logger.Info("Temp sweep finished", "files_removed", removed)
		return
	}

	if err := r.Start(cfg.Reaper.Schedule); err != nil {
		log.Fatal("Invalid reaper schedule:", err)
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Received shutdown signal")
	r.Stop()
}
