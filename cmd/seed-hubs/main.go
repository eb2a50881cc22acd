// seed-hubs loads an initial hub set from a JSON file into the database.
// Intended for fresh deployments; existing hub IDs are left untouched.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/reliefgrid/relief-engine/internal/config"
	"github.com/reliefgrid/relief-engine/internal/engine"
	"github.com/reliefgrid/relief-engine/internal/gazetteer"
	"github.com/reliefgrid/relief-engine/internal/logging"
	"github.com/reliefgrid/relief-engine/internal/observability"
	"github.com/reliefgrid/relief-engine/internal/repository"
)

type seedHub struct {
	Name         string         `json:"name"`
	LocationName string         `json:"location_name"`
	Contact      string         `json:"contact"`
	Inventory    map[string]int `json:"inventory"`
}

func main() {
	file := flag.String("file", "hubs.json", "path to the hub seed file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	data, err := os.ReadFile(*file)
	if err != nil {
		logging.Fatalf("Failed to read seed file: %v", err)
	}
	var seeds []seedHub
	if err := json.Unmarshal(data, &seeds); err != nil {
		logging.Fatalf("Failed to parse seed file: %v", err)
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	eng := engine.New(db, gazetteer.NewStatic(), observability.NewMetrics(), engine.Options{
		MatchRadiusKM: cfg.Matching.RadiusKM,
	})

	ctx := context.Background()
	seeded := 0
	for _, s := range seeds {
		hub, err := eng.AddHub(ctx, engine.HubInput{
			Name:         s.Name,
			LocationName: s.LocationName,
			Contact:      s.Contact,
			Inventory:    s.Inventory,
		})
		if err != nil {
			slog.Error("skipping hub", "name", s.Name, "error", err)
			continue
		}
		slog.Info("hub seeded", "hub_id", hub.ID, "name", hub.Name, "location", hub.LocationName)
		seeded++
	}

	slog.Info("seeding complete", "seeded", seeded, "total", len(seeds))
}
