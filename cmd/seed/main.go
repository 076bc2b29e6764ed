package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fekuna/cave-storefront/config"
	"github.com/fekuna/cave-storefront/internal/model"
	prodRepoPkg "github.com/fekuna/cave-storefront/internal/product/repository"
	"github.com/fekuna/cave-storefront/pkg/database/postgres"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type upserter interface {
	UpsertBySKU(ctx context.Context, p *model.WineProduct) (bool, error)
}

type report struct {
	Read     int
	Inserted int
	Updated  int
	Skipped  map[string]string
}

func main() {
	file := flag.String("file", "data/wines.json", "JSON array of scraped vendor records")
	dryRun := flag.Bool("dry-run", false, "normalize and validate without writing")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: true,
		Encoding:      "console",
		Level:         "info",
		DisableCaller: true,
	})
	defer appLogger.Sync()

	f, err := os.Open(*file)
	if err != nil {
		appLogger.Fatal("could not open seed file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()
	records, err := readRecords(f)
	if err != nil {
		appLogger.Fatal("could not decode seed file", zap.Error(err))
	}

	var repo upserter
	if !*dryRun {
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		repo = prodRepoPkg.NewPGRepository(db)
	}

	rep, err := seed(context.Background(), records, repo, cfg.Shop.VendorBaseURL, appLogger)
	if err != nil {
		appLogger.Fatal("seed aborted", zap.Error(err))
	}
	printReport(os.Stdout, rep, *dryRun)
}

func readRecords(r io.Reader) ([]VendorRecord, error) {
	var records []VendorRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// seed normalizes every record and upserts the valid ones. A nil repo is a
// dry run. Database errors abort the run; invalid records are skipped.
func seed(ctx context.Context, records []VendorRecord, repo upserter, vendorBaseURL string, log logger.ZapLogger) (*report, error) {
	rep := &report{Read: len(records), Skipped: map[string]string{}}
	now := time.Now()
	for i, rec := range records {
		key := rec.SKU
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		p, err := ToProduct(rec, vendorBaseURL, now)
		if err != nil {
			rep.Skipped[key] = err.Error()
			log.Warn("record skipped", zap.String("sku", key), zap.Error(err))
			continue
		}
		if repo == nil {
			rep.Inserted++
			continue
		}
		inserted, err := repo.UpsertBySKU(ctx, p)
		if err != nil {
			return rep, fmt.Errorf("upsert %s: %w", p.SKU, err)
		}
		if inserted {
			rep.Inserted++
		} else {
			rep.Updated++
		}
	}
	return rep, nil
}

func printReport(w io.Writer, rep *report, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "dry run: %d read, %d valid, %d skipped\n", rep.Read, rep.Inserted, len(rep.Skipped))
	} else {
		fmt.Fprintf(w, "%d read, %d inserted, %d updated, %d skipped\n", rep.Read, rep.Inserted, rep.Updated, len(rep.Skipped))
	}
	for sku, reason := range rep.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", sku, reason)
	}
}
