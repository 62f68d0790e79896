// Command ingest imports one or more CSV exports from the command line,
// then optionally recomputes KPIs and runs the validation scan for a range.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"log/slog"

	dbembed "github.com/garnizeh/worklog/db"
	"github.com/garnizeh/worklog/internal/anomaly"
	"github.com/garnizeh/worklog/internal/config"
	"github.com/garnizeh/worklog/internal/db"
	"github.com/garnizeh/worklog/internal/dedup"
	"github.com/garnizeh/worklog/internal/ingest"
	"github.com/garnizeh/worklog/internal/jobs"
	"github.com/garnizeh/worklog/internal/kpi"
	"github.com/garnizeh/worklog/internal/repository/sqlite"
	"github.com/garnizeh/worklog/internal/settings"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config YAML file")
		sourceType = flag.String("source", "", "Source type: attendance, activity, calendar, project, vehicle, remote")
		kpiFrom    = flag.String("kpi-from", "", "Recompute KPIs from this day (YYYY-MM-DD) after import")
		kpiTo      = flag.String("kpi-to", "", "Recompute KPIs up to this day (YYYY-MM-DD)")
		scan       = flag.Bool("scan", false, "Run the validation scan over the KPI range")
		cleanup    = flag.Bool("cleanup", false, "Mark exact duplicates among stored activities")
		dryRun     = flag.Bool("dry-run", false, "With -cleanup, only count what would be marked")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbembed.Migrations, dbembed.SeedFiles); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	store := sqlite.New(database, logger)
	cfgValues := settings.New(store, logger)
	pipeline := jobs.NewPipeline(store, cfgValues, logger)
	dedupCfg := pipeline.DedupConfig(ctx)

	files := flag.Args()
	if len(files) > 0 && *sourceType == "" {
		log.Fatal("-source is required when importing files")
	}

	ing := ingest.NewIngester(store, logger, dedupCfg)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}
		session, err := ing.IngestFile(ctx, path, *sourceType, data)
		if err != nil {
			log.Fatalf("Import of %s failed: %v", path, err)
		}
		fmt.Printf("%s: session=%s processed=%d inserted=%d updated=%d skipped=%d warnings=%d\n",
			path, session.SessionID, session.Processed, session.Inserted, session.Updated, session.Skipped, len(session.Warnings))
		for _, warn := range session.Warnings {
			fmt.Printf("  warning: %s\n", warn)
		}
	}

	if *cleanup {
		engine := dedup.NewEngine(store, logger, dedupCfg)
		marked, err := engine.CleanupExistingDuplicates(ctx, *dryRun)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("cleanup: marked=%d dry_run=%v\n", marked, *dryRun)
	}

	if *kpiFrom != "" && *kpiTo != "" {
		calc := kpi.NewCalculator(store, logger, kpi.LoadParams(ctx, cfgValues))
		rows, err := calc.ComputeRange(ctx, *kpiFrom, *kpiTo)
		if err != nil {
			log.Fatalf("KPI recomputation failed: %v", err)
		}
		fmt.Printf("kpi: rows=%d\n", rows)

		if *scan {
			engine, err := anomaly.NewEngine(store, logger, anomaly.DefaultThresholds())
			if err != nil {
				log.Fatalf("Validation engine init failed: %v", err)
			}
			findings, err := engine.Scan(ctx, *kpiFrom, *kpiTo)
			if err != nil {
				log.Fatalf("Validation scan failed: %v", err)
			}
			fmt.Printf("scan: findings=%d\n", findings)
		}
	}
}
