package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"squad-backend/internal/config"
	"squad-backend/internal/state"
	"squad-backend/internal/state/sqlite"
)

// migrate copies the local-dev state document from one backend to another,
// e.g. MIGRATE_FROM=file MIGRATE_TO=firestore. The destination is
// overwritten.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	from := os.Getenv("MIGRATE_FROM")
	if from == "" {
		from = "file"
	}
	to := os.Getenv("MIGRATE_TO")
	if to == "" {
		to = "firestore"
	}
	if from == to {
		log.Fatalf("MIGRATE_FROM and MIGRATE_TO are both %q", from)
	}

	ctx := context.Background()

	src, closeSrc, err := open(ctx, cfg, from)
	if err != nil {
		log.Fatalf("Failed to open source: %v", err)
	}
	defer closeSrc()

	dst, closeDst, err := open(ctx, cfg, to)
	if err != nil {
		log.Fatalf("Failed to open destination: %v", err)
	}
	defer closeDst()

	fmt.Printf("Migrating state %s -> %s\n\n", src.Location(), dst.Location())

	data, err := src.Load(ctx)
	if errors.Is(err, state.ErrNotExist) {
		log.Fatalf("Nothing to migrate: %s is empty", src.Location())
	}
	if err != nil {
		log.Fatalf("Failed to load source: %v", err)
	}
	doc, err := state.Decode(data)
	if err != nil {
		log.Fatalf("Failed to decode source: %v", err)
	}

	notes := 0
	for _, ns := range doc.PlayerNotes {
		notes += len(ns)
	}
	media := 0
	for _, ms := range doc.PlayerMediaFiles {
		media += len(ms)
	}
	fmt.Printf("Players: %d (%d accounts, %d notes, %d media files)\n", len(doc.Players), len(doc.PlayerUsers), notes, media)
	fmt.Printf("Staff: %d, Teams: %d\n", len(doc.Staff), len(doc.Teams))
	fmt.Printf("Events: %d\n", len(doc.Events))
	fmt.Printf("Chat rooms: %d, Notifications: %d\n", len(doc.ChatRooms), len(doc.Notifications))
	fmt.Printf("Coach notes: %d\n", len(doc.CoachNotes))
	fmt.Printf("Reports: %d staff, %d player\n", len(doc.Reports), len(doc.PlayerReports))
	fmt.Printf("Daily notes: %d, Player analytics: %d, Event analytics: %d\n",
		len(doc.DailyPlayerNotes), len(doc.DailyPlayerAnalytics), len(doc.DailyEventAnalytics))

	quiet := slog.New(slog.DiscardHandler)
	if err := state.New(dst, quiet, nil).Write(ctx, doc); err != nil {
		log.Fatalf("Failed to write destination: %v", err)
	}
	fmt.Printf("\nDone. Wrote schema version %d to %s.\n", state.SchemaVersion, dst.Location())
}

func open(ctx context.Context, cfg *config.Config, backend string) (state.Persister, func(), error) {
	noop := func() {}
	switch backend {
	case "file":
		p, err := state.NewFilePersister(cfg.StateDir)
		return p, noop, err
	case "sqlite":
		p, err := sqlite.Open(filepath.Join(cfg.StateDir, "state.db"))
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	case "firestore":
		if cfg.GCPProjectID == "" {
			return nil, nil, errors.New("GCP_PROJECT_ID is required")
		}
		p, err := state.NewFirestorePersister(ctx, cfg.GCPProjectID, cfg.FirestoreDatabase, cfg.FirestoreCollection, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", backend)
}
