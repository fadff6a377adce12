package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	fsds "github.com/fsdslab/go-fsds"
)

type Config struct {
	DataDir string `envconfig:"DATA_DIR"`
}

func main() {
	var (
		dataDir   string
		limit     int
		forms     string
		uniqueCIK bool
		stmts     string
		outDir    string
		perFiling bool
		parallel  int
		verbose   bool
	)

	flag.StringVar(&dataDir, "data-dir", "", "Directory holding sub.txt, num.txt, pre.txt, tag.txt (or DATA_DIR env var)")
	flag.IntVar(&limit, "limit", 25, "Number of filings to sample")
	flag.StringVar(&forms, "forms", "10-K,10-Q", "Comma-separated form types to sample from")
	flag.BoolVar(&uniqueCIK, "unique-cik", true, "Sample at most one filing per company")
	flag.StringVar(&stmts, "stmts", "", "Comma-separated statement roles to check; default: all core statements")
	flag.StringVar(&outDir, "out-dir", "proof", "Directory to write report JSON files into")
	flag.BoolVar(&perFiling, "save-per-filing", false, "Also write one JSON report per filing")
	flag.IntVar(&parallel, "parallel", 4, "Filings validated concurrently")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fsds-prove -data-dir <dir> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Validate statement reconstruction across a sample of filings and\n")
		fmt.Fprintf(os.Stderr, "write a scorecard of coverage and subtotal health.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
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

	if dataDir == "" {
		fmt.Fprintf(os.Stderr, "Error: -data-dir is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(dataDir, limit, splitList(forms), uniqueCIK, splitList(stmts), outDir, perFiling, parallel, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dataDir string, limit int, forms []string, uniqueCIK bool, roles []string, outDir string, perFiling bool, parallel int, log *slog.Logger) error {
	log.Info("loading dataset", "dir", dataDir)
	ds, err := fsds.LoadDataset(dataDir)
	if err != nil {
		return err
	}

	accessions := ds.SampleAccessions(limit, forms, uniqueCIK)
	if len(accessions) == 0 {
		return fmt.Errorf("no filings matched forms %v", forms)
	}
	log.Info("sampled filings", "count", len(accessions), "forms", forms)

	batch, err := ds.ValidateBatch(context.Background(), accessions, roles, parallel)
	if err != nil {
		return err
	}
	card := batch.Scorecard()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	if err := writeJSON(filepath.Join(outDir, "batch_report.json"), batch); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "scorecard.json"), card); err != nil {
		return err
	}
	if perFiling {
		for adsh, report := range batch.Reports {
			name := strings.ReplaceAll(adsh, "-", "") + ".json"
			if err := writeJSON(filepath.Join(outDir, name), report); err != nil {
				return err
			}
		}
	}

	printScorecard(card)
	return nil
}

func printScorecard(card *fsds.Scorecard) {
	fmt.Printf("filings: %d  statements: %d\n", card.Filings, card.StatementsChecked)
	fmt.Printf("coverage: avg %.1f%%  min %.1f%%\n", card.AvgCoverage*100, card.MinCoverage*100)
	fmt.Printf("structural failures: %d  subtotal warnings: %d  filing errors: %d\n",
		card.StructuralFailures, card.SubtotalWarnings, card.FilingErrors)
	for _, role := range card.SortedRoles() {
		health := card.PerRole[role]
		fmt.Printf("  %-4s checked %3d  clean %3d (%.1f%%)\n",
			role, health.Checked, health.Passed, health.PassRatio*100)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
