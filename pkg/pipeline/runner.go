package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nanofab/descript/pkg/assemble"
	"github.com/nanofab/descript/pkg/cache"
	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/gds"
	"github.com/nanofab/descript/pkg/gwl"
	"github.com/nanofab/descript/pkg/layout"
	"github.com/nanofab/descript/pkg/layout/match"
	"github.com/nanofab/descript/pkg/recipe"
	"github.com/nanofab/descript/pkg/slicer"
	"github.com/nanofab/descript/pkg/stl"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the preview server can use this to avoid duplicating
// caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete resolve → plan → slice → assemble pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	result := &Result{RunID: uuid.NewString()}

	// Stage 1: Resolve
	resolveStart := time.Now()
	res, resolveHit, err := r.ResolveWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Library = res.Library
	result.Topcell = res.Topcell
	result.Targets = res.Targets
	result.Stats.Cells = res.Cells
	result.Stats.Targets = len(res.Targets)
	result.CacheInfo.ResolveHit = resolveHit

	r.Logger.Info("resolved print targets",
		"library", res.Library,
		"topcell", res.Topcell,
		"targets", len(res.Targets),
		"duration", time.Since(resolveStart))

	// Stage 2: Associate
	infos, err := r.associate(result.Targets, opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("associated meshes", "meshes", len(infos))

	// Stage 3: Plan
	base, err := r.baseRecipe(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.DistinctRecipes = planRecipes(result.Targets, base, infos)
	r.Logger.Info("planned recipes",
		"targets", len(result.Targets),
		"distinct", result.Stats.DistinctRecipes)

	if opts.DryRun {
		result.Stats.Duration = time.Since(start)
		r.Logger.Info("dry run, skipping slicer and job assembly")
		return result, nil
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create output directory %s", opts.OutDir)
	}

	// Stage 4: Slice
	sliceStart := time.Now()
	sliceStats, err := r.slice(ctx, result.Targets, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.DistinctRecipes = sliceStats.Distinct
	result.Stats.SlicerRuns = sliceStats.Runs
	result.Stats.CacheHits = sliceStats.CacheHits

	r.Logger.Info("sliced recipes",
		"invocations", sliceStats.Runs,
		"cache_hits", sliceStats.CacheHits,
		"duration", time.Since(sliceStart))

	// Stage 5: Assemble
	doc, err := r.assembleJob(res, result.Targets, base, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc

	jobPath := filepath.Join(opts.OutDir, opts.JobFileName(res.Library))
	if err := writeDocument(doc, jobPath); err != nil {
		return nil, err
	}
	result.JobPath = jobPath
	result.Stats.Duration = time.Since(start)

	manifestPath := filepath.Join(opts.OutDir, ManifestName)
	if err := WriteManifest(manifestPath, buildManifest(opts, res, result)); err != nil {
		return nil, err
	}
	result.ManifestPath = manifestPath

	r.Logger.Info("job script written",
		"path", jobPath,
		"targets", len(result.Targets),
		"duration", result.Stats.Duration)

	return result, nil
}

// ResolveWithCacheInfo resolves print targets with caching and returns cache
// hit info.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, opts Options) (Resolution, bool, error) {
	if err := opts.ValidateForResolve(); err != nil {
		return Resolution{}, false, err
	}
	r.applyLogger(&opts)

	// Compute the cache key from the file content. An unreadable file falls
	// through to the parser for its own error.
	var cacheKey string
	fileHash, err := cache.HashFile(opts.LayoutPath)
	if err == nil {
		cacheKey = r.Keyer.LayoutKey(fileHash, opts.LayoutKeyOpts())
	}

	// Try cache first
	if cacheKey != "" {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached Resolution
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
	}

	res, err := resolveLayout(opts)
	if err != nil {
		return Resolution{}, false, err
	}
	res.LayoutHash = fileHash

	// Cache the result
	if cacheKey != "" {
		if data, err := json.Marshal(res); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		}
	}

	return res, false, nil // Cache miss
}

// Resolve is a convenience wrapper that calls ResolveWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Resolve(ctx context.Context, opts Options) (Resolution, error) {
	res, _, err := r.ResolveWithCacheInfo(ctx, opts)
	return res, err
}

// resolveLayout parses the layout and walks it into a flat target list.
func resolveLayout(opts Options) (Resolution, error) {
	lib, err := gds.ReadFile(opts.LayoutPath)
	if err != nil {
		return Resolution{}, err
	}

	matcher, err := match.ByName(opts.Matcher, opts.Config.MatcherOptions(opts.Matcher))
	if err != nil {
		return Resolution{}, err
	}
	if err := matcher.Setup(lib); err != nil {
		return Resolution{}, err
	}
	labels := layout.ApplyLabels(lib, matcher.Match)

	top, err := topCell(lib, opts.Topcell)
	if err != nil {
		return Resolution{}, err
	}

	targets, err := layout.Resolve(top, labels)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{
		Library: lib.Name,
		Topcell: top.Name,
		Cells:   len(lib.Cells),
		Targets: make([]Placement, 0, len(targets)),
	}
	for _, t := range targets {
		res.Targets = append(res.Targets, Placement{Cell: t.Cell.Name, Transform: t.Transform})
	}
	if min, max, ok := layout.TargetBounds(targets); ok {
		res.BBoxMin, res.BBoxMax = min, max
	}
	return res, nil
}

// topCell picks the traversal root: a named cell when pinned, otherwise
// automatic selection.
func topCell(lib *layout.Library, name string) (*layout.Cell, error) {
	if name != "" {
		return layout.FindCell(lib, name)
	}
	return layout.FindTopCell(lib)
}

// associate binds every target cell to its mesh and probes each distinct
// file once.
func (r *Runner) associate(placements []Placement, opts Options) (map[string]stl.Info, error) {
	paths, err := stl.Find(opts.STLDirs, !opts.NonRecursive)
	if err != nil {
		return nil, err
	}
	matched, err := stl.Associate(distinctCells(placements), paths)
	if err != nil {
		return nil, err
	}

	infos := make(map[string]stl.Info, len(matched))
	for _, path := range matched {
		if _, ok := infos[path]; ok {
			continue
		}
		info, err := stl.Stat(path)
		if err != nil {
			return nil, err
		}
		infos[path] = info
	}
	for i := range placements {
		placements[i].Mesh = matched[placements[i].Cell]
	}
	return infos, nil
}

// baseRecipe builds the parameter set every placement is stamped from. An
// explicit recipe file is used as-is over the built-in defaults; otherwise
// the config's [recipe] table applies.
func (r *Runner) baseRecipe(opts Options) (*recipe.Recipe, error) {
	if opts.RecipePath != "" {
		return recipe.Load(opts.RecipePath)
	}
	base := recipe.New()
	if err := opts.Config.OverlayRecipe(base); err != nil {
		return nil, err
	}
	return base, nil
}

// planRecipes stamps one recipe per placement and counts the distinct
// parameter sets, which is the number of slicer invocations a cold cache
// would need.
func planRecipes(placements []Placement, base *recipe.Recipe, infos map[string]stl.Info) int {
	prints := make(map[string]bool, len(placements))
	for i := range placements {
		p := &placements[i]
		info := infos[p.Mesh]
		rcp := base.Clone()
		rcp.Stamp(p.Mesh, info.Min, info.Max, p.Transform)
		p.Recipe = rcp
		prints[rcp.Fingerprint()] = true
	}
	return len(prints)
}

// slice feeds every placement through the memo, so identical recipes slice
// once and cached bundles restore without an invocation.
func (r *Runner) slice(ctx context.Context, placements []Placement, opts Options) (slicer.Stats, error) {
	memo := &slicer.Memo{
		Slicer:   opts.slicerRunner(),
		SlicerID: opts.Config.Paths.DeScribe,
		OutDir:   opts.OutDir,
		Cache:    r.Cache,
		Keyer:    r.Keyer,
		Logger:   r.Logger,
	}
	for i := range placements {
		if err := ctx.Err(); err != nil {
			return memo.Stats(), errors.Wrap(errors.ErrCodeCanceled, err, "slicing interrupted")
		}
		arts, err := memo.Slice(ctx, placements[i].Recipe)
		if err != nil {
			return memo.Stats(), err
		}
		placements[i].Include = arts.DataGWL
	}
	return memo.Stats(), nil
}

// assembleJob builds the job script document from the sliced placements.
func (r *Runner) assembleJob(res Resolution, placements []Placement, base *recipe.Recipe, opts Options) (*gwl.Document, error) {
	zones := make([]assemble.Zone, 0, len(placements))
	for _, p := range placements {
		zones = append(zones, assemble.Zone{
			Cell:    p.Cell,
			Origin:  p.Transform.Origin,
			Include: p.Include,
		})
	}

	start := opts.Origin.At
	if opts.Origin.BBox {
		start = res.BBoxMin
	}

	return assemble.Build(assemble.Job{
		Recipe:       base,
		Zones:        zones,
		Start:        start,
		OutDir:       opts.OutDir,
		FieldOffsets: opts.Config.Job.FieldOffsets,
		Logger:       r.Logger,
	})
}

// writeDocument renders the job script to path.
func writeDocument(doc *gwl.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create job script %s", path)
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write job script %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write job script %s", path)
	}
	return nil
}

// distinctCells returns the sorted set of cell names among the placements.
func distinctCells(placements []Placement) []string {
	seen := make(map[string]bool, len(placements))
	var cells []string
	for _, p := range placements {
		if !seen[p.Cell] {
			seen[p.Cell] = true
			cells = append(cells, p.Cell)
		}
	}
	sort.Strings(cells)
	return cells
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
