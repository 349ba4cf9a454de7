package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/refscan/internal/config"
	"github.com/standardbeagle/refscan/internal/display"
	"github.com/standardbeagle/refscan/internal/result"
)

// loadHistory loads the persisted history, treating a corrupt or
// missing file as empty so history commands never hard-fail.
func loadHistory(cfg *config.Config) *result.History {
	h, err := result.LoadHistory(cfg.Project.Root, cfg.History.Limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: starting with empty history: %v\n", err)
	}
	return h
}

// persistCursor saves the history after a navigation step so prev and
// next keep their place across invocations.
func persistCursor(cfg *config.Config, h *result.History) {
	if err := result.SaveHistory(cfg.Project.Root, h); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not persist history position: %v\n", err)
	}
}

func historyListCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	h := loadHistory(cfg)

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"count":   h.Len(),
			"cursor":  h.CursorIndex(),
			"entries": h.Entries(),
		})
	}

	fmt.Print(display.HistoryTable(h.Entries(), h.CursorIndex()))
	return nil
}

func historyShowCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	h := loadHistory(cfg)

	if c.NArg() > 0 {
		n, err := strconv.Atoi(c.Args().First())
		if err != nil || n < 1 {
			return fmt.Errorf("invalid history entry %q (want a number from 'history list')", c.Args().First())
		}
		if n > h.Len() {
			return fmt.Errorf("history entry %d out of range (have %d)", n, h.Len())
		}
		h.Seek(n - 1)
		persistCursor(cfg, h)
	}

	rs := h.Current()
	if rs == nil {
		return result.ErrNoHistory
	}
	return displayResultSet(c, rs)
}

func historyPrevCommand(c *cli.Context) error {
	return historyStep(c, func(h *result.History) *result.ResultSet { return h.Prev() })
}

func historyNextCommand(c *cli.Context) error {
	return historyStep(c, func(h *result.History) *result.ResultSet { return h.Next() })
}

func historyStep(c *cli.Context, step func(*result.History) *result.ResultSet) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	h := loadHistory(cfg)

	rs := step(h)
	if rs == nil {
		return result.ErrNoHistory
	}
	persistCursor(cfg, h)

	if !c.Bool("json") {
		fmt.Printf("Entry %d of %d\n\n", h.CursorIndex()+1, h.Len())
	}
	return displayResultSet(c, rs)
}

func saveCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: refscan save <slot>")
	}
	slot := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	h := loadHistory(cfg)

	rs := h.Current()
	if rs == nil {
		return result.ErrNoHistory
	}
	if err := result.SaveSlot(cfg.Project.Root, slot, rs); err != nil {
		return err
	}
	fmt.Printf("Saved current result to slot %q\n", slot)
	return nil
}

func loadCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: refscan load <slot>")
	}
	slot := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	h := loadHistory(cfg)

	rs, err := result.LoadSlot(cfg.Project.Root, slot)
	if err != nil {
		return err
	}

	h.Push(rs)
	if cfg.History.Autosave {
		persistCursor(cfg, h)
	}
	return displayResultSet(c, rs)
}

func slotsCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	slots, err := result.Slots(cfg.Project.Root)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"slots": slots,
		})
	}

	if len(slots) == 0 {
		fmt.Println("No saved slots")
		return nil
	}
	for _, name := range slots {
		fmt.Println(name)
	}
	return nil
}
