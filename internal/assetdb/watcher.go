package assetdb

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/refscan/internal/debug"
	"github.com/standardbeagle/refscan/internal/types"
	"github.com/standardbeagle/refscan/pkg/pathutil"
)

// watchEvent classifies what a debounced batch should do with a path.
type watchEvent int

const (
	watchUpsert watchEvent = iota
	watchRemove
)

// Watcher keeps the index in sync with the project tree. File system
// events are debounced into batches; each batch upserts or removes the
// affected index rows and then reports the project keys to OnFlush so
// the caller can re-run a search.
type Watcher struct {
	db        *DB
	watcher   *fsnotify.Watcher
	debouncer *eventDebouncer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// OnFlush receives the batch after the index was updated. Runs on
	// the debouncer timer goroutine.
	OnFlush func(changed, removed []string)

	statsMu         sync.Mutex
	eventsProcessed int64
	lastEventTime   time.Time
}

// NewWatcher creates a watcher for the database's project root.
// Debounce zero selects the default interval.
func NewWatcher(db *DB, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = types.DefaultWatchDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		db:      db,
		watcher: fsw,
		ctx:     ctx,
		cancel:  cancel,
	}
	w.debouncer = newEventDebouncer(debounce, w.applyBatch)
	return w, nil
}

// Start adds watches for the whole project tree and begins processing
// events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.db.Root()); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.processEvents()

	w.wg.Add(1)
	go w.debouncer.run(w.ctx, &w.wg)

	debug.LogWatch("watching %s\n", w.db.Root())
	return nil
}

// Stop shuts down event processing. Events pending in the debouncer at
// shutdown are dropped; the next reindex reconciles them.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// addWatches recursively watches every directory under root.
func (w *Watcher) addWatches(root string) error {
	visitedDirs := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnoreDir(info.Name()) {
			return filepath.SkipDir
		}

		// Symlink cycle guard
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if err := w.watcher.Add(path); err != nil {
			debug.LogWatch("watch %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnoreDir(name string) bool {
	return name == ".git" || name == types.StateDirName
}

// processEvents drains fsnotify until the watcher stops.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.LogWatch("watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.underIgnoredDir(path) {
		return
	}

	// New directories need their own watch before events inside them
	// can arrive.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.shouldIgnoreDir(info.Name()) {
				if err := w.watcher.Add(path); err != nil {
					debug.LogWatch("watch new dir %s: %v\n", path, err)
				}
			}
			return
		}
	}

	// Every asset event is keyed by the primary path: sidecar events
	// fold onto the asset they describe.
	key := pathutil.ToProjectKey(strings.TrimSuffix(path, types.MetaSuffix), w.db.Root())
	if key == "" || key == "." {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.debouncer.addEvent(key, watchRemove)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.debouncer.addEvent(key, watchUpsert)
	}
}

func (w *Watcher) underIgnoredDir(path string) bool {
	rel := pathutil.ToProjectKey(path, w.db.Root())
	return rel == types.StateDirName || strings.HasPrefix(rel, types.StateDirName+"/") ||
		rel == ".git" || strings.HasPrefix(rel, ".git/")
}

// applyBatch is the debouncer flush target: it updates the index for
// every path in the batch, then reports the batch to OnFlush.
func (w *Watcher) applyBatch(events map[string]watchEvent) {
	var changed, removed []string
	for key, ev := range events {
		switch ev {
		case watchUpsert:
			if err := w.db.UpsertPath(w.ctx, key); err != nil {
				debug.LogWatch("upsert %s: %v\n", key, err)
				continue
			}
			changed = append(changed, key)
		case watchRemove:
			// A rename fires Remove for the old name even when the
			// asset still exists under it; trust the file system.
			if _, err := os.Stat(pathutil.FromProjectKey(key, w.db.Root())); err == nil {
				if err := w.db.UpsertPath(w.ctx, key); err == nil {
					changed = append(changed, key)
				}
				continue
			}
			if err := w.db.RemovePath(w.ctx, key); err != nil {
				debug.LogWatch("remove %s: %v\n", key, err)
				continue
			}
			removed = append(removed, key)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)

	w.statsMu.Lock()
	w.eventsProcessed += int64(len(events))
	w.lastEventTime = time.Now()
	w.statsMu.Unlock()

	if w.OnFlush != nil && (len(changed) > 0 || len(removed) > 0) {
		w.OnFlush(changed, removed)
	}
}

// Stats reports what the watcher has processed so far.
func (w *Watcher) Stats() (events int64, last time.Time) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.eventsProcessed, w.lastEventTime
}

// eventDebouncer batches file events so a burst of saves triggers one
// index update instead of one per event.
type eventDebouncer struct {
	mutex    sync.Mutex
	events   map[string]watchEvent
	debounce time.Duration
	timer    *time.Timer
	flush    func(map[string]watchEvent)
}

func newEventDebouncer(debounce time.Duration, flush func(map[string]watchEvent)) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]watchEvent),
		debounce: debounce,
		flush:    flush,
	}
}

// addEvent records the latest event for a path and restarts the
// debounce window.
func (d *eventDebouncer) addEvent(path string, ev watchEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.events[path] = ev

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.fire)
}

// run holds the debouncer open until shutdown. Events pending at
// shutdown are dropped on purpose: flushing here could race the
// database teardown.
func (d *eventDebouncer) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	<-ctx.Done()

	d.mutex.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]watchEvent)
	d.mutex.Unlock()
}

func (d *eventDebouncer) fire() {
	d.mutex.Lock()
	events := d.events
	d.events = make(map[string]watchEvent)
	d.mutex.Unlock()

	if len(events) == 0 {
		return
	}
	debug.LogWatch("flushing %d debounced events\n", len(events))
	d.flush(events)
}
