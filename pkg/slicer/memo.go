package slicer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/nanofab/descript/pkg/cache"
	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/recipe"
	"github.com/nanofab/descript/pkg/stl"
)

// Memo deduplicates slicer work. Within a run, equal recipe values
// share one artifact set. Across runs, a cache of zipped bundles keyed
// by recipe and mesh content lets a hit unpack instead of slicing.
type Memo struct {
	// Slicer performs the actual invocation on a miss.
	Slicer Runner
	// SlicerID distinguishes installations in cache keys, normally
	// the executable path.
	SlicerID string
	// OutDir is where per-recipe directories are created.
	OutDir string
	// Cache is the optional cross-run bundle store. Nil disables it.
	Cache cache.Cache
	// Keyer builds bundle keys. Nil uses the default.
	Keyer cache.Keyer
	// Logger receives memo decisions. Nil uses the default logger.
	Logger *log.Logger

	seen []entry
	runs int
	hits int
}

type entry struct {
	rcp  *recipe.Recipe
	arts Artifacts
}

// Stats reports what the memo did so far.
type Stats struct {
	// Distinct counts distinct recipe values seen.
	Distinct int
	// Runs counts actual slicer invocations.
	Runs int
	// CacheHits counts bundles restored from the cross-run cache.
	CacheHits int
}

// Stats returns the current counters.
func (m *Memo) Stats() Stats {
	return Stats{Distinct: len(m.seen), Runs: m.runs, CacheHits: m.hits}
}

// Slice returns the artifact set for rcp, slicing at most once per
// distinct recipe value.
func (m *Memo) Slice(ctx context.Context, rcp *recipe.Recipe) (Artifacts, error) {
	logger := m.logger()

	for _, e := range m.seen {
		if e.rcp.Equal(rcp) {
			logger.Debug("recipe already sliced", "dir", filepath.Dir(e.arts.Dir))
			return e.arts, nil
		}
	}

	meshPath := rcp.Text(recipe.KeyModelFilePath)
	meshStem := stl.Stem(meshPath)
	n := len(m.seen) + 1
	base := fmt.Sprintf("%d_%s", n, meshStem)
	recipeDir := filepath.Join(m.OutDir, base)
	recipePath := filepath.Join(recipeDir, base+".recipe")

	key := m.bundleKey(rcp, meshPath)

	if key != "" {
		if arts, ok := m.restore(ctx, key, recipeDir, base, meshStem); ok {
			m.hits++
			m.remember(rcp, arts)
			return arts, nil
		}
	}

	if err := os.MkdirAll(recipeDir, 0o755); err != nil {
		return Artifacts{}, errors.Wrap(errors.ErrCodeInternal, err, "create %s", recipeDir)
	}
	arts, err := m.Slicer.Run(ctx, rcp, recipePath)
	if err != nil {
		return Artifacts{}, err
	}
	m.runs++

	if key != "" {
		m.store(ctx, key, recipePath, arts)
	}
	m.remember(rcp, arts)
	return arts, nil
}

// remember records a distinct recipe. The clone keeps later caller
// mutations from corrupting the memo.
func (m *Memo) remember(rcp *recipe.Recipe, arts Artifacts) {
	m.seen = append(m.seen, entry{rcp: rcp.Clone(), arts: arts})
}

// bundleKey builds the cross-run cache key, or "" when caching is off
// or the mesh cannot be hashed.
func (m *Memo) bundleKey(rcp *recipe.Recipe, meshPath string) string {
	if m.Cache == nil || meshPath == "" {
		return ""
	}
	meshHash, err := cache.HashFile(meshPath)
	if err != nil {
		m.logger().Debug("mesh not hashable, skipping bundle cache", "mesh", meshPath, "err", err)
		return ""
	}
	return m.keyer().SliceKey(rcp.Fingerprint(), meshHash, cache.SliceKeyOpts{Slicer: m.SlicerID})
}

// restore tries to unpack a cached bundle. Any failure falls back to
// slicing; a corrupt blob is evicted.
func (m *Memo) restore(ctx context.Context, key, recipeDir, base, meshStem string) (Artifacts, bool) {
	logger := m.logger()

	blob, hit, err := m.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("bundle cache unreadable", "err", err)
		return Artifacts{}, false
	}
	if !hit {
		return Artifacts{}, false
	}
	if err := os.MkdirAll(recipeDir, 0o755); err != nil {
		logger.Warn("cannot restore bundle", "dir", recipeDir, "err", err)
		return Artifacts{}, false
	}
	arts, err := unpackArtifacts(blob, recipeDir, base, meshStem)
	if err != nil {
		logger.Warn("evicting corrupt bundle", "err", err)
		_ = m.Cache.Delete(ctx, key)
		return Artifacts{}, false
	}
	logger.Debug("restored slicer bundle", "dir", recipeDir)
	return arts, true
}

// store packs the artifacts and writes them to the bundle cache. A
// failed write costs a warning, not the run; the slice it would have
// saved is already done.
func (m *Memo) store(ctx context.Context, key, recipePath string, arts Artifacts) {
	logger := m.logger()

	blob, err := packArtifacts(recipePath, arts)
	if err != nil {
		logger.Warn("cannot pack slicer bundle", "err", err)
		return
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		if err := m.Cache.Set(ctx, key, blob, cache.TTLSlice); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("cannot store slicer bundle", "err", err)
		return
	}
	logger.Debug("stored slicer bundle", "bytes", len(blob))
}

func (m *Memo) keyer() cache.Keyer {
	if m.Keyer != nil {
		return m.Keyer
	}
	return cache.NewDefaultKeyer()
}

func (m *Memo) logger() *log.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return log.Default()
}
