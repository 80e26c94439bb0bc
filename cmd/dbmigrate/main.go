package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/legacy"
	"tg-antijudi/internal/storage"
)

func main() {
	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	dir := flag.String("dir", ".", "Directory holding the legacy JSON files")
	dryRun := flag.Bool("dry-run", false, "Only parse the files and report what would be imported")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	snapshot, err := legacy.Read(*dir)
	if err != nil {
		log.Fatalf("Failed to read legacy files: %v", err)
	}
	for _, s := range snapshot.Skipped {
		log.Printf("Skipped %s", s)
	}
	fmt.Printf("Found %d groups, %d violating users, %d clean users, %d mutes, %d bans, %d verified users\n",
		len(snapshot.ActiveGroups), len(snapshot.Violations), len(snapshot.CleanMessages),
		len(snapshot.Mutes), len(snapshot.Bans), len(snapshot.VerifiedUsers))
	if *dryRun {
		return
	}

	backend, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	counts, err := snapshot.Import(ctx, storage.NewCoordinator(backend, cfg.Storage.Retry))
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	fmt.Printf("Imported %d groups, %d violations, %d clean messages, %d mutes, %d bans, %d verified users (%d conflicting records dropped)\n",
		counts.Groups, counts.Violations, counts.CleanMessages, counts.Mutes, counts.Bans, counts.VerifiedUsers, counts.Conflicts)
}
