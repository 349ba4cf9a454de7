package assetdb

import (
	"database/sql"

	"github.com/standardbeagle/refscan/internal/debug"
	"github.com/standardbeagle/refscan/internal/resolve"
	"github.com/standardbeagle/refscan/internal/types"
)

// The lookup side of the index. DB implements resolve.Resolver; the
// boolean-result methods treat query failures as missing entries and
// log them, matching the tolerant contract of the interface.

// MainByPath returns the primary entity for a project-relative path.
func (d *DB) MainByPath(path string) (resolve.Entity, bool) {
	var guid, name, typeTag string
	err := d.db.QueryRow(
		`SELECT guid, name, type_tag FROM assets WHERE path = ?`, path).
		Scan(&guid, &name, &typeTag)
	if err == sql.ErrNoRows {
		return resolve.Entity{}, false
	}
	if err != nil {
		debug.LogResolve("main by path %s: %v\n", path, err)
		return resolve.Entity{}, false
	}
	return resolve.Main(guid, path, name, typeTag), true
}

// SubsByPath lists the sub-entities indexed for the asset at path,
// excluding the primary object.
func (d *DB) SubsByPath(path string) ([]resolve.Entity, error) {
	var guid string
	err := d.db.QueryRow(`SELECT guid FROM assets WHERE path = ?`, path).Scan(&guid)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(
		`SELECT local_id, name, type_tag FROM subassets
		 WHERE guid = ? ORDER BY local_id`, guid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []resolve.Entity
	for rows.Next() {
		var localID, name, typeTag string
		if err := rows.Scan(&localID, &name, &typeTag); err != nil {
			return nil, err
		}
		subs = append(subs, resolve.Sub(guid, localID, path, name, typeTag))
	}
	return subs, rows.Err()
}

// ByRef resolves a reference back to a full entity. A sub-reference
// resolves as long as the owning asset still exists; a sub row that
// vanished from the index keeps the ref usable with empty display
// fields.
func (d *DB) ByRef(ref types.EntityRef) (resolve.Entity, bool) {
	guid, localID := ref.Split()

	var path, name, typeTag string
	err := d.db.QueryRow(
		`SELECT path, name, type_tag FROM assets WHERE guid = ?`, guid).
		Scan(&path, &name, &typeTag)
	if err == sql.ErrNoRows {
		return resolve.Entity{}, false
	}
	if err != nil {
		debug.LogResolve("by ref %s: %v\n", ref, err)
		return resolve.Entity{}, false
	}

	if localID == "" {
		return resolve.Main(guid, path, name, typeTag), true
	}

	var subName, subTag string
	err = d.db.QueryRow(
		`SELECT name, type_tag FROM subassets WHERE guid = ? AND local_id = ?`,
		guid, localID).Scan(&subName, &subTag)
	if err != nil && err != sql.ErrNoRows {
		debug.LogResolve("by ref %s: %v\n", ref, err)
	}
	return resolve.Sub(guid, localID, path, subName, subTag), true
}

// PathByGUID returns the current project path of an asset.
func (d *DB) PathByGUID(guid string) (string, bool) {
	var path string
	err := d.db.QueryRow(`SELECT path FROM assets WHERE guid = ?`, guid).Scan(&path)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		debug.LogResolve("path by guid %s: %v\n", guid, err)
		return "", false
	}
	return path, true
}

// Paths lists every indexed asset path in ascending order.
func (d *DB) Paths() ([]string, error) {
	rows, err := d.db.Query(`SELECT path FROM assets ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// Count returns the number of indexed assets and sub-assets.
func (d *DB) Count() (assets, subs int, err error) {
	if err = d.db.QueryRow(`SELECT COUNT(*) FROM assets`).Scan(&assets); err != nil {
		return 0, 0, err
	}
	if err = d.db.QueryRow(`SELECT COUNT(*) FROM subassets`).Scan(&subs); err != nil {
		return 0, 0, err
	}
	return assets, subs, nil
}
