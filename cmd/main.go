// Command-line companion to the API server: imports catalog files and
// runs one-off plans without going through HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fikatrip/planner/bootstrap"
	"github.com/fikatrip/planner/config"
	logcontext "github.com/fikatrip/planner/context"
	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/model"
)

func main() {
	log.Init()
	_ = godotenv.Load()

	importFile := flag.String("import", "", "JSON file with catalog POIs to load")
	destination := flag.String("destination", "", "destination key for -import")
	planFile := flag.String("plan", "", "JSON file with a planning request to run")
	flag.Parse()

	if *importFile == "" && *planFile == "" {
		fmt.Fprintln(os.Stderr, "usage: planner-cli [-import pois.json -destination city] [-plan request.json]")
		os.Exit(2)
	}

	ctx := logcontext.WithRequestID(context.Background(), logcontext.NewRequestID())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf(ctx, "Failed to load config: %v", err)
	}
	app, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf(ctx, "Setup failed: %v", err)
	}

	if *importFile != "" {
		if *destination == "" {
			log.Fatalf(ctx, "-import requires -destination")
		}
		if err := importCatalog(app, *importFile, *destination); err != nil {
			log.Fatalf(ctx, "Import failed: %v", err)
		}
	}

	if *planFile != "" {
		if err := runPlan(ctx, app, *planFile); err != nil {
			log.Fatalf(ctx, "Plan failed: %v", err)
		}
	}
}

func importCatalog(app *bootstrap.App, path, destination string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var pois []model.POI
	if err := json.Unmarshal(buf, &pois); err != nil {
		return fmt.Errorf("malformed catalog file: %w", err)
	}
	if err := app.Catalog.ImportPOIs(destination, pois); err != nil {
		return err
	}
	log.Infof(context.Background(), "Imported %d POIs for %s", len(pois), destination)
	return nil
}

func runPlan(ctx context.Context, app *bootstrap.App, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var intake model.IntakeRequest
	if err := json.Unmarshal(buf, &intake); err != nil {
		return fmt.Errorf("malformed request file: %w", err)
	}

	plan, err := app.Planner.Plan(ctx, &intake)
	if err != nil {
		return err
	}
	rec, err := app.Store.Save(&intake, plan)
	if err != nil {
		return err
	}
	log.Infof(ctx, "Saved itinerary %s", rec.ID)

	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
