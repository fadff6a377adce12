package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	fsds "github.com/fsdslab/go-fsds"
)

// Config carries the environment-sourced settings; flags override it.
type Config struct {
	DataDir string `envconfig:"DATA_DIR"`
	PGDSN   string `envconfig:"PG_DSN"`
}

func main() {
	var (
		dataDir  string
		adsh     string
		stmt     string
		outPath  string
		xlsxPath string
		validate bool
		toPG     bool
		verbose  bool
	)

	flag.StringVar(&dataDir, "data-dir", "", "Directory holding sub.txt, num.txt, pre.txt, tag.txt (or DATA_DIR env var)")
	flag.StringVar(&adsh, "adsh", "", "Accession number of the filing to reconstruct")
	flag.StringVar(&stmt, "stmt", "", "Statement role (BS, IS, CF, CI, EQ); default: all core statements")
	flag.StringVar(&outPath, "out", "", "Write the statement as a reference CSV to this path")
	flag.StringVar(&xlsxPath, "xlsx", "", "Write the filing as an Excel workbook to this path")
	flag.BoolVar(&validate, "validate", false, "Print coverage and subtotal diagnostics instead of the statement")
	flag.BoolVar(&toPG, "pg", false, "Persist reconstructed rows to Postgres (PG_DSN env var)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fsds -data-dir <dir> -adsh <accession> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Reconstruct financial statements from SEC Financial Statement Data Sets.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fsds -data-dir ./2024q1 -adsh 0000320193-24-000006 -stmt BS\n")
		fmt.Fprintf(os.Stderr, "  fsds -data-dir ./2024q1 -adsh 0000320193-24-000006 -xlsx apple.xlsx\n")
		fmt.Fprintf(os.Stderr, "  fsds -data-dir ./2024q1 -adsh 0000320193-24-000006 -stmt IS -validate\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment (also read from .env):\n")
		fmt.Fprintf(os.Stderr, "  DATA_DIR    Default data directory\n")
		fmt.Fprintf(os.Stderr, "  PG_DSN      Postgres connection string for -pg\n")
	}
	flag.Parse()

	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if dataDir == "" || adsh == "" {
		fmt.Fprintf(os.Stderr, "Error: -data-dir and -adsh are required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(dataDir, adsh, stmt, outPath, xlsxPath, cfg.PGDSN, validate, toPG, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dataDir, adsh, stmt, outPath, xlsxPath, dsn string, validate, toPG bool, log *slog.Logger) error {
	log.Info("loading dataset", "dir", dataDir)
	ds, err := fsds.LoadDataset(dataDir)
	if err != nil {
		return err
	}
	if issues := ds.IntegrityIssues(); len(issues) > 0 {
		log.Warn("dataset has integrity issues", "count", len(issues))
	}

	roles := []string{stmt}
	if stmt == "" {
		roles = fsds.CoreStatementRoles
	}

	if validate {
		for _, role := range roles {
			report, err := ds.Validate(adsh, role)
			if err != nil {
				log.Warn("validation failed", "stmt", role, "err", err)
				continue
			}
			printCoverage(report)
		}
		return nil
	}

	statements, err := ds.ReconstructFiling(adsh, roles)
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		return fmt.Errorf("no statements could be reconstructed for %s", adsh)
	}

	if xlsxPath != "" {
		if err := fsds.WriteWorkbook(xlsxPath, statements); err != nil {
			return err
		}
		log.Info("wrote workbook", "path", xlsxPath)
	}

	if toPG {
		if dsn == "" {
			return fmt.Errorf("-pg requires PG_DSN")
		}
		ctx := context.Background()
		store, err := fsds.NewStore(ctx, dsn, "", log)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		for role, rows := range statements {
			if err := store.WriteStatementRows(ctx, rows); err != nil {
				return err
			}
			log.Info("persisted statement", "stmt", role, "rows", len(rows))
		}
	}

	if outPath != "" {
		if stmt == "" {
			return fmt.Errorf("-out requires a single -stmt")
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		if err := fsds.WriteReferenceCSV(f, statements[stmt]); err != nil {
			return err
		}
		log.Info("wrote reference table", "path", outPath)
		return nil
	}

	if xlsxPath == "" && !toPG {
		for _, role := range roles {
			rows, ok := statements[role]
			if !ok {
				continue
			}
			printStatement(role, rows)
		}
	}
	return nil
}

func printStatement(role string, rows []fsds.StatementRow) {
	fmt.Printf("=== %s ===\n", role)
	for _, row := range rows {
		indent := strings.Repeat("  ", row.Depth)
		if row.Abstract {
			fmt.Printf("%s%s\n", indent, row.Label)
			continue
		}
		fmt.Printf("%s%-60s %20s\n", indent, row.Label, row.Formatted)
	}
	fmt.Println()
}

func printCoverage(report *fsds.CoverageReport) {
	fmt.Printf("=== %s %s ===\n", report.Accession, report.Role)
	fmt.Printf("rows: %d  non-abstract: %d  resolved: %d  coverage: %.1f%%\n",
		report.Rows, report.NonAbstract, report.Resolved, report.CoverageRatio*100)
	for _, concept := range report.MissingConcepts {
		fmt.Printf("  missing: %s\n", concept)
	}
	for _, check := range report.SubtotalChecks {
		status := "ok"
		if !check.Passed {
			status = "MISMATCH"
		}
		fmt.Printf("  subtotal %-50s %s (delta %.2f)\n", check.Concept, status, check.Delta)
	}
	fmt.Println()
}
