package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/refscan/internal/assetdb"
	"github.com/standardbeagle/refscan/internal/config"
	"github.com/standardbeagle/refscan/internal/corpus"
	"github.com/standardbeagle/refscan/internal/display"
	"github.com/standardbeagle/refscan/internal/resolve"
	"github.com/standardbeagle/refscan/internal/result"
	"github.com/standardbeagle/refscan/internal/scan"
	"github.com/standardbeagle/refscan/internal/search"
	"github.com/standardbeagle/refscan/internal/types"
	"github.com/standardbeagle/refscan/pkg/pathutil"
)

func scanCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: refscan scan <path-or-guid>...")
	}
	return runSearch(c, c.Args().Slice(), "")
}

func textCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: refscan text <string>")
	}
	return runSearch(c, nil, c.Args().First())
}

// runSearch executes one search end to end: config, index, history,
// the parallel scan with a progress bar, display, autosave.
func runSearch(c *cli.Context, targets []string, text string) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	meta, err := metaMode(c, cfg)
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

	// Ctrl-C cancels the scan at the next file boundary.
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

	co := &search.Coordinator{
		Root:        cfg.Project.Root,
		Resolver:    db,
		Filter:      filter,
		History:     history,
		Workers:     cfg.Scan.Workers,
		MaxFileSize: cfg.Scan.MaxFileSize,
	}

	bar := newProgressBar(c)
	if bar != nil {
		co.OnProgress = bar.update
	}

	start := time.Now()
	rs, err := co.Run(ctx, req)
	if bar != nil {
		bar.finish()
	}
	elapsed := time.Since(start)

	if errors.Is(err, scan.ErrCanceled) {
		fmt.Fprintln(os.Stderr, "Scan canceled, no results recorded.")
		return cli.Exit("", 130)
	}
	var unresolved *search.UnresolvedTargetsError
	if errors.As(err, &unresolved) {
		printSuggestions(db, unresolved.Targets)
		return cli.Exit("", 1)
	}
	if err != nil {
		return err
	}

	if rs.Unreadable > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d file(s) could not be read\n", rs.Unreadable)
	}

	if cfg.History.Autosave {
		if err := result.SaveHistory(cfg.Project.Root, history); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: history autosave failed: %v\n", err)
		}
	}
	if slot := c.String("save"); slot != "" {
		if err := result.SaveSlot(cfg.Project.Root, slot, rs); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to slot %q\n", slot)
	}

	if c.Bool("json") {
		output := map[string]interface{}{
			"time_ms": float64(elapsed.Microseconds()) / 1000.0,
			"targets": len(rs.PerTarget),
			"found":   rs.FoundCount(),
			"result":  rs,
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	fmt.Printf("Search completed in %.1fms\n\n", float64(elapsed.Microseconds())/1000.0)
	return displayResultSet(c, rs)
}

func fileCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("usage: refscan file <path> <path-or-guid>...")
	}
	args := c.Args().Slice()

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

	path := normalizeTarget(args[0], cfg.Project.Root)

	var entities []resolve.Entity
	var unresolved []string
	for _, target := range args[1:] {
		e, ok := resolveEntity(db, normalizeTarget(target, cfg.Project.Root))
		if !ok {
			unresolved = append(unresolved, target)
			continue
		}
		entities = append(entities, e)
	}
	if len(unresolved) > 0 {
		printSuggestions(db, unresolved)
		return cli.Exit("", 2)
	}

	co := &search.Coordinator{Root: cfg.Project.Root, Resolver: db}
	hit, err := co.SearchFile(entities, path, meta, cfg.Scan.GUIDOnly || c.Bool("guid-only"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"path":  path,
			"match": hit,
		})
	}
	if hit {
		fmt.Printf("%s references the target(s)\n", path)
		return nil
	}
	fmt.Printf("%s: no reference found\n", path)
	return cli.Exit("", 1)
}

// metaMode resolves the sidecar mode: the --meta flag when given,
// otherwise the config default.
func metaMode(c *cli.Context, cfg *config.Config) (types.MetaMode, error) {
	s := c.String("meta")
	if s == "" {
		return cfg.MetaMode(), nil
	}
	m, ok := types.ParseMetaMode(s)
	if !ok {
		return types.MetaNone, fmt.Errorf("invalid meta mode %q (want none, with-asset or only)", s)
	}
	return m, nil
}

// resolveEntity maps one CLI target, a project path or a GUID, to its
// main entity.
func resolveEntity(db *assetdb.DB, target string) (resolve.Entity, bool) {
	if search.IsGUID(target) {
		if path, ok := db.PathByGUID(target); ok {
			return db.MainByPath(path)
		}
		return resolve.Entity{}, false
	}
	return db.MainByPath(target)
}

// normalizeTarget turns CLI path input, absolute or relative, into the
// canonical project key. GUID targets pass through untouched.
func normalizeTarget(target, root string) string {
	if search.IsGUID(target) {
		return target
	}
	return strings.TrimPrefix(pathutil.ToProjectKey(target, root), "./")
}

func normalizeTargets(targets []string, root string) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = normalizeTarget(t, root)
	}
	return out
}

// printSuggestions reports unresolved targets with near-miss paths
// from the index.
func printSuggestions(db *assetdb.DB, targets []string) {
	for _, target := range targets {
		fmt.Fprintf(os.Stderr, "Error: %q is not in the asset index\n", target)
		for _, s := range db.SuggestPaths(target, 3) {
			fmt.Fprintf(os.Stderr, "  did you mean %s?\n", s)
		}
	}
	fmt.Fprintln(os.Stderr, "Run 'refscan index' if the project changed recently.")
}

// displayResultSet renders a result set per the display flags.
func displayResultSet(c *cli.Context, rs *result.ResultSet) error {
	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(rs)
	}

	formatter := display.NewResultFormatter(display.FormatterOptions{
		Format:     determineFormat(c),
		Inverted:   c.Bool("inverted"),
		ShowRefs:   c.Bool("show-refs"),
		MaxEntries: c.Int("max-entries"),
		Indent:     "  ",
	})
	fmt.Print(formatter.Format(rs))
	return nil
}

// progressBar adapts the scheduler's progress sink to a pterm bar.
// Snapshots arrive on the scan orchestrator goroutine; the bar starts
// lazily because the corpus size is unknown until the first snapshot.
type progressBar struct {
	bar *pterm.ProgressbarPrinter
}

func newProgressBar(c *cli.Context) *progressBar {
	if c.Bool("no-progress") || c.Bool("json") {
		return nil
	}
	return &progressBar{}
}

func (p *progressBar) update(snap scan.Progress) {
	if snap.FilesTotal <= 0 {
		return
	}
	if p.bar == nil {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(snap.FilesTotal).
			WithTitle("scanning").
			WithWriter(os.Stderr).
			WithRemoveWhenDone(true).
			Start()
		if err != nil {
			return
		}
		p.bar = bar
	}
	if delta := snap.FilesDone - p.bar.Current; delta > 0 {
		p.bar.Add(delta)
	}
	if snap.CurrentPath != "" {
		p.bar.UpdateTitle(shortenPath(snap.CurrentPath, 40))
	}
}

func (p *progressBar) finish() {
	if p.bar != nil {
		p.bar.Stop()
	}
}

// shortenPath keeps the tail of a long path so the file name stays
// visible in the progress title.
func shortenPath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-max+3:]
}
