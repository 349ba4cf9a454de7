package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/refscan/internal/assetdb"
	"github.com/standardbeagle/refscan/internal/corpus"
	"github.com/standardbeagle/refscan/internal/result"
	"github.com/standardbeagle/refscan/internal/scan"
	"github.com/standardbeagle/refscan/internal/search"
)

// watchCommand runs one search, then re-runs it whenever the project
// tree changes, keeping the index in sync along the way.
func watchCommand(c *cli.Context) error {
	text := c.String("text")
	targets := c.Args().Slice()
	if text == "" && len(targets) == 0 {
		return errors.New("usage: refscan watch <path-or-guid>... (or --text <string>)")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	meta, err := metaMode(c, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openIndex(ctx, c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	history, err := result.LoadHistory(cfg.Project.Root, cfg.History.Limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: starting with empty history: %v\n", err)
	}

	filter, err := corpus.NewFilter(cfg.FilterSpec())
	if err != nil {
		return err
	}

	req := search.Request{
		Targets:     normalizeTargets(targets, cfg.Project.Root),
		Text:        text,
		IncludeSubs: c.Bool("include-subs"),
		Meta:        meta,
		GUIDOnly:    cfg.Scan.GUIDOnly || c.Bool("guid-only"),
	}
	co := &search.Coordinator{
		Root:        cfg.Project.Root,
		Resolver:    db,
		Filter:      filter,
		History:     history,
		Workers:     cfg.Scan.Workers,
		MaxFileSize: cfg.Scan.MaxFileSize,
	}

	rescan := func(reason string) error {
		rs, err := co.Run(ctx, req)
		if errors.Is(err, scan.ErrCanceled) {
			return nil
		}
		if err != nil {
			return err
		}
		if cfg.History.Autosave {
			if err := result.SaveHistory(cfg.Project.Root, history); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: history autosave failed: %v\n", err)
			}
		}
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), reason)
		return displayResultSet(c, rs)
	}

	if err := rescan("initial scan"); err != nil {
		var unresolved *search.UnresolvedTargetsError
		if errors.As(err, &unresolved) {
			printSuggestions(db, unresolved.Targets)
			return cli.Exit("", 1)
		}
		return err
	}

	w, err := assetdb.NewWatcher(db, cfg.WatchDebounce())
	if err != nil {
		return err
	}
	w.OnFlush = func(changed, removed []string) {
		reason := fmt.Sprintf("%d changed, %d removed", len(changed), len(removed))
		if err := rescan(reason); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: rescan failed: %v\n", err)
		}
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", cfg.Project.Root)
	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "Stopped watching")
	return nil
}
