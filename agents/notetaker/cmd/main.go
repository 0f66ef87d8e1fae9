package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"yt-notes/agents/notetaker"
	"yt-notes/shared/config"
	"yt-notes/shared/monitoring"
	"yt-notes/shared/scheduler"
	"yt-notes/shared/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline := notetaker.NewPipeline(cfg)
	if err := pipeline.Initialize(); err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	// One-off mode: yt-notes <video URL or ID> prints the note as JSON.
	if len(os.Args) > 1 && os.Args[1] != "--serve" {
		result, err := pipeline.Run(ctx, os.Args[1])
		if err != nil {
			log.Fatalf("Failed to process video: %v", err)
		}

		out, err := json.MarshalIndent(result.Note, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode note: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	store, err := storage.OpenSQLite(cfg.Storage.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open note store: %v", err)
	}
	defer store.Close()

	maintenance := scheduler.NewMaintenance(cfg)
	if err := maintenance.Start(); err != nil {
		log.Fatalf("Failed to start maintenance scheduler: %v", err)
	}
	defer maintenance.Stop()

	monitor := monitoring.NewMonitor()
	server := notetaker.NewServer(cfg, pipeline, store, monitor)

	fmt.Println("Starting server...")
	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
