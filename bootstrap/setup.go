// Package bootstrap wires configuration, storage, routing, and the
// planning pipeline into a runnable application.
package bootstrap

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fikatrip/planner/config"
	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/orm"
	"github.com/fikatrip/planner/osrm"
	"github.com/fikatrip/planner/pipeline"
)

// App holds the initialized components of the application
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Catalog *orm.Catalog
	Store   *orm.ItineraryStore
	Travel  pipeline.TravelService
	Planner *pipeline.Planner
}

// Setup initializes the application components based on the configuration
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := openDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&orm.CatalogPOI{}, &orm.ItineraryRecord{}, &orm.APICache{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Infof(ctx, "Database ready (driver=%s)", cfg.DB.Driver)

	osrmClient := osrm.NewClient(cfg.OSRM)
	travel := orm.NewCachedTravel(osrmClient, db, 0)

	catalog := orm.NewCatalog(db)
	planner := pipeline.NewPlanner(catalog, travel, cfg.Solver.TimeLimit())

	return &App{
		Config:  cfg,
		DB:      db,
		Catalog: catalog,
		Store:   orm.NewItineraryStore(db),
		Travel:  travel,
		Planner: planner,
	}, nil
}

func openDB(cfg config.DBConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	case "sqlite", "":
		return gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}
