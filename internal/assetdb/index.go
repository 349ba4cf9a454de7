package assetdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/refscan/internal/debug"
	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/types"
	"github.com/standardbeagle/refscan/pkg/pathutil"
)

// errNoGUID marks a sidecar without a parseable guid line.
var errNoGUID = errors.New("sidecar has no guid")

// Stats summarizes one reindex pass.
type Stats struct {
	Scanned   int // sidecar files visited
	Updated   int // asset rows written or rewritten
	Removed   int // asset rows swept because the file is gone
	SubAssets int // sub-asset rows written
	Duration  time.Duration
}

type indexResult struct {
	updated bool
	subs    int
}

// Reindex walks the project tree and brings the index in line with it.
// Unchanged assets are skipped on a modification-time and size check,
// confirmed by a content hash when the cheap check fails. Assets whose
// files are gone are swept at the end. The whole pass runs in one
// transaction, so a canceled reindex leaves the previous index intact.
func (d *DB) Reindex(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, refserrors.NewPersistError("reindex", d.path, err)
	}
	defer tx.Rollback()

	seen := make(map[string]bool)
	visitedDirs := make(map[string]bool)

	walkErr := filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if info.IsDir() {
			name := info.Name()
			if name == ".git" || name == types.StateDirName {
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
			return nil
		}

		if !strings.HasSuffix(path, types.MetaSuffix) {
			return nil
		}
		stats.Scanned++

		key, res, err := d.indexOne(ctx, tx, path)
		if err != nil {
			debug.LogResolve("index %s: %v\n", path, err)
			return nil
		}
		if key == "" {
			return nil
		}
		seen[key] = true
		if res.updated {
			stats.Updated++
		}
		stats.SubAssets += res.subs
		return nil
	})
	if walkErr != nil {
		return stats, walkErr
	}

	removed, err := sweepMissing(ctx, tx, seen)
	if err != nil {
		return stats, refserrors.NewPersistError("reindex", d.path, err)
	}
	stats.Removed = removed

	if err := tx.Commit(); err != nil {
		return stats, refserrors.NewPersistError("reindex", d.path, err)
	}

	stats.Duration = time.Since(start)
	debug.LogResolve("reindex: %d sidecars, %d updated, %d removed in %v\n",
		stats.Scanned, stats.Updated, stats.Removed, stats.Duration)
	return stats, nil
}

// UpsertPath refreshes the index row for one project-relative asset
// path. Used by the watcher; missing sidecars are an error the caller
// tolerates.
func (d *DB) UpsertPath(ctx context.Context, rel string) error {
	metaOS := pathutil.FromProjectKey(rel+types.MetaSuffix, d.root)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return refserrors.NewPersistError("upsert", rel, err)
	}
	defer tx.Rollback()

	if _, _, err := d.indexOne(ctx, tx, metaOS); err != nil {
		return err
	}
	return tx.Commit()
}

// RemovePath drops the index rows for one project-relative asset path.
func (d *DB) RemovePath(ctx context.Context, rel string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return refserrors.NewPersistError("remove", rel, err)
	}
	defer tx.Rollback()

	if err := removeAssetRow(ctx, tx, rel); err != nil {
		return refserrors.NewPersistError("remove", rel, err)
	}
	return tx.Commit()
}

// indexOne indexes the asset belonging to one sidecar file. Returns
// the asset's project key, or "" when the sidecar is an orphan.
func (d *DB) indexOne(ctx context.Context, tx *sql.Tx, metaOSPath string) (string, indexResult, error) {
	var res indexResult

	metaInfo, err := os.Stat(metaOSPath)
	if err != nil {
		return "", res, err
	}
	metaContent, err := os.ReadFile(metaOSPath)
	if err != nil {
		return "", res, err
	}
	guid, ok := ParseMetaGUID(string(metaContent))
	if !ok {
		return "", res, refserrors.NewResolveError("parse-meta", metaOSPath, errNoGUID)
	}

	primaryOS := strings.TrimSuffix(metaOSPath, types.MetaSuffix)
	primaryInfo, err := os.Stat(primaryOS)
	if err != nil {
		// Orphan sidecar: the asset itself is gone.
		return "", res, nil
	}
	folder := primaryInfo.IsDir()
	key := pathutil.ToProjectKey(primaryOS, d.root)

	// Either file changing must look stale, so the row tracks the
	// newer mtime and the combined size.
	mtime := primaryInfo.ModTime()
	if metaInfo.ModTime().After(mtime) {
		mtime = metaInfo.ModTime()
	}
	size := metaInfo.Size()
	if !folder {
		size += primaryInfo.Size()
	}

	var storedMtime, storedSize, storedHash int64
	found := true
	err = tx.QueryRowContext(ctx,
		`SELECT mtime, size, fast_hash FROM assets WHERE path = ?`, key).
		Scan(&storedMtime, &storedSize, &storedHash)
	if err == sql.ErrNoRows {
		found = false
	} else if err != nil {
		return "", res, err
	}

	if found && storedMtime == mtime.UnixNano() && storedSize == size {
		return key, res, nil
	}

	// Cheap check failed: hash sidecar plus any serialized content to
	// confirm a real change before rewriting rows.
	h := xxhash.New()
	_, _ = h.Write(metaContent)

	var primaryContent []byte
	parseSubs := !folder && HasSerializedSubDocs(primaryOS) &&
		primaryInfo.Size() <= types.DefaultMaxFileSize
	if parseSubs {
		primaryContent, err = os.ReadFile(primaryOS)
		if err != nil {
			debug.LogResolve("read %s: %v\n", primaryOS, err)
			primaryContent = nil
			parseSubs = false
		} else {
			_, _ = h.Write(primaryContent)
		}
	}
	hash := int64(h.Sum64())

	if found && hash == storedHash {
		_, err = tx.ExecContext(ctx,
			`UPDATE assets SET mtime = ?, size = ? WHERE path = ?`,
			mtime.UnixNano(), size, key)
		return key, res, err
	}

	name := filepath.Base(key)
	if !folder {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	// A moved asset keeps its guid; retire the old path first.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assets WHERE guid = ? AND path != ?`, guid, key); err != nil {
		return "", res, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assets (path, guid, name, type_tag, mtime, size, fast_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   guid = excluded.guid, name = excluded.name, type_tag = excluded.type_tag,
		   mtime = excluded.mtime, size = excluded.size, fast_hash = excluded.fast_hash`,
		key, guid, name, TypeTagForAsset(key, folder), mtime.UnixNano(), size, hash)
	if err != nil {
		return "", res, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM subassets WHERE guid = ?`, guid); err != nil {
		return "", res, err
	}
	if parseSubs {
		docs := ParseDocMarkers(string(primaryContent))
		for _, doc := range docs {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO subassets (guid, local_id, name, type_tag)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT(guid, local_id) DO UPDATE SET
				   name = excluded.name, type_tag = excluded.type_tag`,
				guid, doc.LocalID, doc.Name, ClassTypeTag(doc.ClassID))
			if err != nil {
				return "", res, err
			}
		}
		res.subs = len(docs)
	}

	res.updated = true
	return key, res, nil
}

// sweepMissing deletes rows whose paths were not seen by the walk.
func sweepMissing(ctx context.Context, tx *sql.Tx, seen map[string]bool) (int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT path FROM assets`)
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, err
		}
		if !seen[path] {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, path := range stale {
		if err := removeAssetRow(ctx, tx, path); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

func removeAssetRow(ctx context.Context, tx *sql.Tx, path string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM subassets WHERE guid IN (SELECT guid FROM assets WHERE path = ?)`,
		path); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE path = ?`, path)
	return err
}
