package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"

	"github.com/SethMMorton/tidymoney/internal/history"
	"github.com/SethMMorton/tidymoney/internal/process"
	"github.com/SethMMorton/tidymoney/internal/rules"
	"github.com/SethMMorton/tidymoney/internal/storage"
	"github.com/SethMMorton/tidymoney/internal/timestamps"
	"github.com/SethMMorton/tidymoney/internal/ui"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Core CLI flags
	rulesFile  = flag.String("rules", "", "Rules file (default: <config dir>/tidymoney/rules.yaml)")
	stampsFile = flag.String("timestamps", "", "Timestamps file (default: next to the rules file)")
	dryRun     = flag.Bool("dry-run", false, "Show what would be written without writing")
	verbose    = flag.Bool("verbose", false, "Show detailed processing logs")
	showRuns   = flag.Int("history", 0, "Show the N most recent runs and exit")
)

func main() {
	// Custom usage message
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `tidymoney - Normalize and categorize bank CSV downloads

Usage:
  tidymoney [flags] <csv files...>

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Process freshly downloaded statements
  tidymoney ~/Downloads/discover.csv ~/Downloads/ally.csv

  # Preview without touching the storage directory
  tidymoney -dry-run ~/Downloads/discover.csv

  # Show the last five runs
  tidymoney -history 5

`)
	}

	flag.Parse()

	// Handle version flag
	if *versionFlag {
		fmt.Printf("tidymoney version %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file may override where the rules live. Absence is fine.
	_ = godotenv.Load()

	rulePath, err := locateRulesFile()
	if err != nil {
		return err
	}
	stampPath := locateStampsFile(rulePath)

	if *verbose {
		ui.Info(fmt.Sprintf("Rules file: %s", rulePath))
		ui.Info(fmt.Sprintf("Timestamps file: %s", stampPath))
	}

	ruleset, err := rules.LoadFile(rulePath)
	if err != nil {
		return err
	}

	if *showRuns > 0 {
		return printHistory(ruleset.Paths.Storage, *showRuns)
	}

	files := flag.Args()
	if len(files) == 0 {
		return errors.New("no csv files given")
	}

	stamps, err := timestamps.LoadFile(stampPath)
	if err != nil {
		return err
	}

	ui.Header("Processing Bank Transactions")
	ui.Step(1, 3, fmt.Sprintf("Reading %d csv files", len(files)))

	batches, err := process.Files(files, ruleset)
	if err != nil {
		return err
	}

	today := civil.DateOf(time.Now())

	ui.Step(2, 3, "Applying watermarks")
	process.ApplyWatermarks(today, batches, stamps)

	counts := make(map[string]int, len(batches))
	for label, batch := range batches {
		counts[label] = batch.Len()
		if *verbose {
			ui.Info(fmt.Sprintf("%s: %d new transactions", label, batch.Len()))
		}
	}

	if *dryRun {
		ui.Step(3, 3, "Dry run, skipping writes")
		for label, batch := range batches {
			doc, err := batch.CSV()
			if err != nil {
				return err
			}
			fmt.Printf("--- %s ---\n%s", label, doc)
		}
		return nil
	}

	ui.Step(3, 3, "Writing results")
	if err := persist(today, batches, stamps, ruleset, files, stampPath); err != nil {
		return err
	}

	if _, err := recordHistory(ruleset.Paths.Storage, today, counts); err != nil {
		// The ledger is informational; a failure here must not undo a run
		// whose outputs are already on disk.
		ui.Warning(fmt.Sprintf("Could not record run history: %v", err))
	}

	ui.Success(fmt.Sprintf("Processed %d accounts", len(batches)))
	return nil
}

// persist writes every output file, archives the raw downloads, and saves
// the watermarks, in that order. Watermarks go last so a failed run leaves
// them untouched and the next run reprocesses everything.
func persist(
	today civil.Date,
	batches map[string]*process.Processor,
	stamps *timestamps.Keeper,
	ruleset *rules.RuleFile,
	rawFiles []string,
	stampPath string,
) error {
	outDir, err := storage.OutputDir(ruleset.Paths.Storage, today)
	if err != nil {
		return err
	}

	for label, batch := range batches {
		doc, err := batch.CSV()
		if err != nil {
			return err
		}
		target := filepath.Join(outDir, label+".csv")
		if err := storage.WriteFileAtomic(target, []byte(doc)); err != nil {
			return err
		}
		if *verbose {
			ui.Info(fmt.Sprintf("Wrote %s", target))
		}
	}

	if err := storage.ArchiveRawFiles(rawFiles, ruleset.Paths.Storage, today); err != nil {
		return err
	}

	return stamps.Save(stampPath)
}

func recordHistory(storageRoot string, today civil.Date, counts map[string]int) (string, error) {
	store, err := history.Open(filepath.Join(storageRoot, "history.db"))
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.RecordRun(today, counts)
}

func printHistory(storageRoot string, limit int) error {
	store, err := history.Open(filepath.Join(storageRoot, "history.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Runs(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ui.Info("No runs recorded yet")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-20s %4d transactions  (run %s)\n",
			r.RunDate, r.Account, r.Transactions, r.RunID[:8])
	}
	return nil
}

// locateRulesFile resolves the rules file from, in order, the -rules flag,
// the TIDYMONEY_RULES environment variable, and the platform config
// directory.
func locateRulesFile() (string, error) {
	if *rulesFile != "" {
		return storage.ExpandHome(*rulesFile), nil
	}
	if env := os.Getenv("TIDYMONEY_RULES"); env != "" {
		return storage.ExpandHome(env), nil
	}
	confDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate the configuration directory: %w", err)
	}
	return filepath.Join(confDir, "tidymoney", "rules.yaml"), nil
}

// locateStampsFile puts the timestamps file next to the rules file unless
// the flag overrides it.
func locateStampsFile(rulePath string) string {
	if *stampsFile != "" {
		return storage.ExpandHome(*stampsFile)
	}
	return filepath.Join(filepath.Dir(rulePath), "timestamps.json")
}
