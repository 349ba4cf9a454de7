// Package search ties the subsystem together: it turns user-facing
// targets into reference tokens, enumerates the corpus, drives the
// parallel scan, aggregates the raw matches, and records the outcome
// in history.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/refscan/internal/corpus"
	"github.com/standardbeagle/refscan/internal/debug"
	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/resolve"
	"github.com/standardbeagle/refscan/internal/result"
	"github.com/standardbeagle/refscan/internal/scan"
	"github.com/standardbeagle/refscan/internal/types"
)

// Request describes one search: either entity targets or a raw text
// needle, never both.
type Request struct {
	// Targets are asset paths (project-relative) or 32-hex GUIDs.
	Targets []string

	// Text, when set, requests a raw substring search instead of
	// entity matching.
	Text string

	// IncludeSubs adds one token per sub-entity of every resolved
	// target, so references to the parts are found alongside
	// references to the whole.
	IncludeSubs bool

	Meta     types.MetaMode
	GUIDOnly bool
}

// UnresolvedTargetsError lists the requested targets that do not exist
// in the asset index. The search performs no work when any target is
// unresolved; the CLI turns the list into "did you mean" suggestions.
type UnresolvedTargetsError struct {
	Targets []string
}

func (e *UnresolvedTargetsError) Error() string {
	return fmt.Sprintf("unresolved targets: %s", strings.Join(e.Targets, ", "))
}

// Coordinator wires the injected collaborators into the full search
// pipeline. The zero value is not usable; all collaborator fields are
// required except History and OnProgress.
type Coordinator struct {
	// Root is the project directory all relative paths hang off.
	Root string

	Resolver resolve.Resolver
	Filter   *corpus.Filter

	// History, when set, records every completed search.
	History *result.History

	// Workers bounds scan parallelism; non-positive selects the
	// hardware default.
	Workers int

	// MaxFileSize overrides the per-file scan size cap when positive.
	MaxFileSize int64

	// OnProgress receives scan progress snapshots.
	OnProgress scan.ProgressFunc
}

// Run executes one search end to end and returns the aggregated
// result set. Invalid requests fail before any file is touched.
// Cancellation returns scan.ErrCanceled with no result set and leaves
// history untouched.
func (co *Coordinator) Run(ctx context.Context, req Request) (*result.ResultSet, error) {
	tokens, err := co.prepareTokens(req)
	if err != nil {
		return nil, err
	}

	c, err := co.Filter.Paths(co.Root)
	if err != nil {
		return nil, err
	}

	cfg := types.SearchConfig{
		Tokens:   tokens,
		Meta:     req.Meta,
		GUIDOnly: req.GUIDOnly,
		Filter:   co.Filter.Spec(),
	}

	raw, err := scan.Scan(ctx, tokens, c, scan.Options{
		Root:        co.Root,
		Meta:        req.Meta,
		GUIDOnly:    req.GUIDOnly,
		Workers:     co.Workers,
		MaxFileSize: co.MaxFileSize,
		OnProgress:  co.OnProgress,
	})
	if err != nil {
		return nil, err
	}
	if c.Len() > 0 && raw.Unreadable == c.Len() {
		return nil, refserrors.NewScanError("scan",
			fmt.Errorf("all %d corpus files unreadable", c.Len()))
	}

	rs := result.Build(raw, cfg, co.Resolver)
	if co.History != nil {
		co.History.Push(rs)
	}

	co.runProcessors(rs)
	return rs, nil
}

// SearchFile checks whether one file references any of the given
// entities, outside the parallel pipeline. Load errors surface so the
// caller can distinguish "no reference" from "could not read".
func (co *Coordinator) SearchFile(entities []resolve.Entity, path string, meta types.MetaMode, guidOnly bool) (bool, error) {
	if len(entities) == 0 {
		return false, refserrors.NewValidationError("entities", "nothing to search for")
	}
	tokens := make([]types.ReferenceToken, len(entities))
	for i, e := range entities {
		tokens[i] = resolve.TokenFor(e)
	}

	hits, err := scan.SearchFile(co.Root, path, tokens, meta, guidOnly)
	if err != nil {
		return false, err
	}
	return len(hits) > 0, nil
}

// prepareTokens validates the request and resolves its targets into
// scan tokens. Resolution failures are collected across all targets so
// the caller sees the complete list at once.
func (co *Coordinator) prepareTokens(req Request) ([]types.ReferenceToken, error) {
	if req.Text != "" && len(req.Targets) > 0 {
		return nil, refserrors.NewValidationError("request", "both text and entity targets given")
	}
	if req.Text == "" && len(req.Targets) == 0 {
		return nil, refserrors.NewValidationError("request", "no search target given")
	}

	if req.Text != "" {
		return []types.ReferenceToken{{TargetText: req.Text}}, nil
	}

	var tokens []types.ReferenceToken
	var unresolved []string
	seen := make(map[types.ReferenceToken]bool)

	add := func(tok types.ReferenceToken) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}

	for _, target := range req.Targets {
		main, ok := co.resolveTarget(target)
		if !ok {
			unresolved = append(unresolved, target)
			continue
		}
		add(resolve.TokenFor(main))

		if !req.IncludeSubs {
			continue
		}
		subs, err := co.Resolver.SubsByPath(main.Path)
		if err != nil {
			debug.LogSearch("sub-entity listing failed for %s: %v\n", main.Path, err)
			continue
		}
		for _, sub := range subs {
			add(resolve.TokenFor(sub))
		}
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedTargetsError{Targets: unresolved}
	}
	return tokens, nil
}

// resolveTarget maps one user-facing target string to its main entity.
// GUID-shaped targets resolve through the index first; everything else
// is treated as a project-relative path.
func (co *Coordinator) resolveTarget(target string) (resolve.Entity, bool) {
	if IsGUID(target) {
		if path, ok := co.Resolver.PathByGUID(target); ok {
			return co.Resolver.MainByPath(path)
		}
		return resolve.Entity{}, false
	}
	return co.Resolver.MainByPath(normalizePath(target))
}

// runProcessors hands the distinct found entities to every registered
// post-processor. Processor failures are logged and never fail the
// search.
func (co *Coordinator) runProcessors(rs *result.ResultSet) {
	procs := Processors()
	if len(procs) == 0 {
		return
	}

	entities := foundEntities(rs, co.Resolver)
	for _, p := range procs {
		if err := p.Process(entities); err != nil {
			debug.LogSearch("processor %s failed: %v\n", p.Name(), err)
		}
	}
}

// foundEntities re-resolves the distinct found refs into live
// entities, dropping any that vanished since aggregation.
func foundEntities(rs *result.ResultSet, r resolve.Resolver) []resolve.Entity {
	seen := make(map[types.EntityRef]bool)
	var entities []resolve.Entity
	for i := range rs.PerTarget {
		for _, f := range rs.PerTarget[i].Found {
			if f.Ref == "" || seen[f.Ref] {
				continue
			}
			seen[f.Ref] = true
			if e, ok := r.ByRef(f.Ref); ok {
				entities = append(entities, e)
			}
		}
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Ref < entities[j].Ref })
	return entities
}

// IsGUID reports whether s has the shape of an asset GUID: exactly 32
// lowercase hex characters.
func IsGUID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// normalizePath turns user input into the canonical project key:
// forward slashes, no leading "./".
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, "/")
}
