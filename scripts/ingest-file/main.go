// ingest-file runs the ingestion pipeline on one CSV file from the
// command line. It registers a dataset and a raw-file artifact, ingests
// the file through the same service the library exposes, and prints the
// resulting summary.
//
// Usage: go run ./scripts/ingest-file [flags] <csv-file>
//
// Database connection: config.yaml with PG* environment overrides, the
// same configuration surface as the library.
//
// Flags:
//
//	-dataset    Dataset name to register (default: the file's base name)
//	-rules      YAML validation rule file stored with the dataset
//	-encoding   Skip charset detection and use this encoding
//	-delimiter  Skip delimiter detection and use this delimiter
//	-migrate    Apply pending migrations before ingesting
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/rlake-data/ingest-engine/pkg/config"
	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/logging"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/repositories"
	"github.com/rlake-data/ingest-engine/pkg/rules"
	"github.com/rlake-data/ingest-engine/pkg/services"
)

func main() {
	datasetName := flag.String("dataset", "", "Dataset name to register (default: file base name)")
	rulesPath := flag.String("rules", "", "YAML validation rule file stored with the dataset")
	encoding := flag.String("encoding", "", "Skip charset detection and use this encoding")
	delimiter := flag.String("delimiter", "", "Skip delimiter detection and use this delimiter")
	migrateFirst := flag.Bool("migrate", false, "Apply pending migrations before ingesting")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <csv-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	filePath := args[0]

	cfg, err := config.Load("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	raw, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", filePath, err)
		os.Exit(1)
	}

	name := *datasetName
	if name == "" {
		name = filepath.Base(filePath)
	}

	// Rules from the flag win over the configured default path.
	path := *rulesPath
	if path == "" {
		path = cfg.Ingest.RulesPath
	}
	var ruleSet []*models.ValidationRule
	if path != "" {
		parsed, err := rules.LoadRules(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load rules: %v\n", err)
			os.Exit(1)
		}
		for i := range parsed {
			ruleSet = append(ruleSet, &parsed[i])
		}
	}

	ctx := context.Background()

	if *migrateFirst {
		sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open sql connection: %v\n", err)
			os.Exit(1)
		}
		if err := database.RunMigrations(sqlDB, "migrations", logger); err != nil {
			sqlDB.Close()
			fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
			os.Exit(1)
		}
		sqlDB.Close()
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	datasetRepo := repositories.NewDatasetRepository()
	rawFileRepo := repositories.NewRawFileRepository()

	dataset := &models.Dataset{Name: name, IsActive: true}
	file := &models.RawFile{OriginalFilename: filepath.Base(filePath), FileSize: int64(len(raw))}
	err = db.WithScope(ctx, func(ctx context.Context) error {
		if err := datasetRepo.Create(ctx, dataset); err != nil {
			return err
		}
		file.DatasetID = dataset.ID
		return rawFileRepo.Create(ctx, file)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register dataset: %v\n", err)
		os.Exit(1)
	}

	service := services.NewIngestionService(
		db,
		datasetRepo,
		rawFileRepo,
		repositories.NewSchemaRepository(),
		repositories.NewRecordRepository(),
		repositories.NewRuleRepository(),
		repositories.NewReportRepository(),
		cfg.Ingest.MaxFileSize,
		cfg.Ingest.BatchSize,
		logger,
	)

	result, err := service.Ingest(ctx, dataset.ID, raw, models.IngestOptions{
		Filename:  filepath.Base(filePath),
		Encoding:  *encoding,
		Delimiter: *delimiter,
		RawFileID: &file.ID,
		Rules:     ruleSet,
	})
	if err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Ingested %s into dataset %s (%s)\n", filePath, name, dataset.ID)
	fmt.Printf("  Total rows:     %d\n", result.TotalRows)
	fmt.Printf("  Processed rows: %d\n", result.ProcessedRows)
	fmt.Printf("  Error rows:     %d\n", result.ErrorRows)
	fmt.Printf("  Duplicate rows: %d\n", result.DuplicateRows)
	fmt.Printf("  Columns:        %d\n", len(result.Columns))
	fmt.Printf("  Quality score:  %.1f%%\n", result.QualityScore)
}
