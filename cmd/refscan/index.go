package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/refscan/internal/assetdb"
	"github.com/standardbeagle/refscan/internal/config"
)

// openIndex opens the project's asset index, building it on first use
// so search commands work without an explicit index step.
func openIndex(ctx context.Context, c *cli.Context, cfg *config.Config) (*assetdb.DB, error) {
	db, err := assetdb.OpenExisting(ctx, cfg.Project.Root)
	if err == nil {
		return db, nil
	}
	if !errors.Is(err, assetdb.ErrNotIndexed) {
		return nil, err
	}

	spinner := newSpinner(c, "Building asset index...")
	db, err = assetdb.Open(ctx, cfg.Project.Root)
	if err != nil {
		stopSpinner(spinner)
		return nil, err
	}
	if _, err := db.Reindex(ctx); err != nil {
		stopSpinner(spinner)
		db.Close()
		return nil, err
	}
	stopSpinner(spinner)
	return db, nil
}

func newSpinner(c *cli.Context, title string) *pterm.SpinnerPrinter {
	if c.Bool("no-progress") || c.Bool("json") {
		return nil
	}
	spinner, err := pterm.DefaultSpinner.
		WithWriter(os.Stderr).
		WithRemoveWhenDone(true).
		Start(title)
	if err != nil {
		return nil
	}
	return spinner
}

func stopSpinner(s *pterm.SpinnerPrinter) {
	if s != nil {
		s.Stop()
	}
}

func indexCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if c.Bool("rebuild") {
		if err := os.Remove(assetdb.Path(cfg.Project.Root)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	spinner := newSpinner(c, "Indexing asset sidecars...")
	start := time.Now()
	db, err := assetdb.Open(ctx, cfg.Project.Root)
	if err != nil {
		stopSpinner(spinner)
		return err
	}
	defer db.Close()

	stats, err := db.Reindex(ctx)
	stopSpinner(spinner)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	assets, subs, err := db.Count()
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"scanned":    stats.Scanned,
			"updated":    stats.Updated,
			"removed":    stats.Removed,
			"sub_assets": stats.SubAssets,
			"assets":     assets,
			"subs":       subs,
			"time_ms":    float64(elapsed.Microseconds()) / 1000.0,
		})
	}

	fmt.Printf("Indexed %d sidecar(s): %d updated, %d removed, %d sub-asset(s)\n",
		stats.Scanned, stats.Updated, stats.Removed, stats.SubAssets)
	fmt.Printf("Index now holds %d asset(s), %d sub-asset(s) (%.1fms)\n",
		assets, subs, float64(elapsed.Microseconds())/1000.0)
	return nil
}
