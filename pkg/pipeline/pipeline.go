// Package pipeline provides the core compilation pipeline for descript.
//
// This package implements the complete resolve → plan → slice → assemble
// pipeline that can be used by the CLI and the preview server. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of five stages:
//
//  1. Resolve: Parse the GDS layout, label print cells and flatten the
//     hierarchy into absolute placements
//  2. Associate: Bind each target cell to the STL mesh sharing its name
//  3. Plan: Stamp one slicing recipe per placement from the base parameter set
//  4. Slice: Run the slicer once per distinct recipe, reusing cached bundles
//  5. Assemble: Emit the GWL job script that positions the stage and includes
//     each sliced fragment
//
// Resolution and slicing are cached; a warm cache compiles a layout without
// re-parsing the GDS file or invoking the slicer at all.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    LayoutPath: "wafer.gds",
//	    OutDir:     "wafer_job",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.JobPath)
//
// Run resolution on its own (no meshes or slicer required):
//
//	res, err := runner.Resolve(ctx, opts)
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nanofab/descript/pkg/cache"
	"github.com/nanofab/descript/pkg/config"
	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/gwl"
	"github.com/nanofab/descript/pkg/layout/match"
	"github.com/nanofab/descript/pkg/recipe"
	"github.com/nanofab/descript/pkg/slicer"
	"github.com/nanofab/descript/pkg/transform"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Preview Server
// =============================================================================

const (
	// DefaultJobSuffix is appended to the GDS library name when no explicit
	// job file name is given.
	DefaultJobSuffix = "_job.gwl"

	// ManifestName is the run manifest file written next to the job script.
	ManifestName = "manifest.json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one compilation run.
// This struct supports JSON serialization so run parameters can be
// recorded alongside the outputs.
type Options struct {
	// Layout options
	LayoutPath string `json:"layout"`
	Topcell    string `json:"topcell,omitempty"` // traversal root, "" for automatic selection
	Matcher    string `json:"matcher,omitempty"` // print cell predicate name

	// Mesh options
	STLDirs      []string `json:"stl_dirs,omitempty"`      // search directories, default is the layout's directory
	NonRecursive bool     `json:"non_recursive,omitempty"` // restrict the search to the directories themselves

	// Recipe options
	RecipePath string `json:"recipe,omitempty"` // base recipe file, "" uses defaults plus config overrides

	// Output options
	OutDir  string `json:"out_dir"`
	JobName string `json:"job_name,omitempty"` // job script name, default derives from the library
	Origin  Origin `json:"origin"`
	DryRun  bool   `json:"dry_run,omitempty"` // stop after planning, slice and write nothing

	// Runtime options (not serialized)
	Config config.Config `json:"-"`
	Slicer slicer.Runner `json:"-"`
	Logger *log.Logger   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Origin selects the stage position the job's first move is measured from.
type Origin struct {
	// BBox starts at the minimum corner of the target origins.
	BBox bool `json:"bbox,omitempty"`
	// At is the explicit start position when BBox is false.
	At transform.Vec2 `json:"at"`
}

// Placement is one print target bound to its production inputs. Cell and
// Transform come from resolution; Mesh, Recipe and Include are filled by the
// association, planning and slicing stages of a single run and are never
// cached.
type Placement struct {
	Cell      string              `json:"cell"`
	Transform transform.Transform `json:"transform"`

	// Mesh is the STL file whose stem matches Cell.
	Mesh string `json:"-"`
	// Recipe is the stamped parameter set for this placement.
	Recipe *recipe.Recipe `json:"-"`
	// Include is the sliced data fragment referenced by the job script.
	Include string `json:"-"`
}

// Resolution is the outcome of target resolution on one layout. It is the
// unit stored in the layout cache and carries everything later stages need
// from the GDS file, so a warm cache skips parsing entirely.
type Resolution struct {
	// Library is the library name from the GDS header.
	Library string `json:"library"`
	// Topcell is the traversal root that was used.
	Topcell string `json:"topcell"`
	// Cells is the number of structures in the library.
	Cells int `json:"cells"`
	// LayoutHash is the content hash of the layout file.
	LayoutHash string `json:"layout_hash"`
	// Targets are the resolved placements in traversal order.
	Targets []Placement `json:"targets"`
	// BBoxMin and BBoxMax span the target origins.
	BBoxMin transform.Vec2 `json:"bbox_min"`
	BBoxMax transform.Vec2 `json:"bbox_max"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this run.
	RunID string

	// Library and Topcell describe the compiled layout.
	Library string
	Topcell string

	// Targets are the placements with mesh, recipe and fragment bound.
	Targets []Placement

	// Document is the assembled job script (nil on dry runs).
	Document *gwl.Document

	// JobPath and ManifestPath are the written outputs ("" on dry runs).
	JobPath      string
	ManifestPath string

	// Stats contains counts and timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Cells           int           `json:"cells"`
	Targets         int           `json:"targets"`
	DistinctRecipes int           `json:"distinct_recipes"`
	SlicerRuns      int           `json:"slicer_runs"`
	CacheHits       int           `json:"cache_hits"`
	Duration        time.Duration `json:"duration_ns"`
}

// CacheInfo tracks cache hits outside the slicer stage. Slicer hits are
// counted per recipe in Stats.CacheHits.
type CacheInfo struct {
	ResolveHit bool // whether the target list came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if o.OutDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "output directory is required")
	}
	if err := errors.ValidateJobName(o.JobName); err != nil {
		return err
	}
	if len(o.STLDirs) == 0 {
		o.STLDirs = []string{filepath.Dir(o.LayoutPath)}
	}
	o.validated = true
	return nil
}

// ValidateForResolve checks required fields for target resolution.
func (o *Options) ValidateForResolve() error {
	if o.LayoutPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "layout path is required")
	}

	// Resolution defaults come from the tool configuration.
	if o.Config.IsZero() {
		o.Config = config.Default()
	}
	if o.Matcher == "" {
		o.Matcher = o.Config.Layout.Matcher
	}
	if o.Topcell == "" {
		o.Topcell = o.Config.Layout.Topcell
	}
	if _, err := match.ByName(o.Matcher, match.DefaultOptions()); err != nil {
		return err
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// JobFileName returns the job script name, deriving it from the resolved
// library when no explicit name is set.
func (o *Options) JobFileName(library string) string {
	if o.JobName != "" {
		return o.JobName
	}
	return library + DefaultJobSuffix
}

// LayoutKeyOpts returns cache key options for target resolution. The matcher
// signature folds in the predicate parameters so a changed layer or sentinel
// never hits a stale entry.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	mopts := o.Config.MatcherOptions(o.Matcher)
	return cache.LayoutKeyOpts{
		Matcher: fmt.Sprintf("%s/%d/%d/%s",
			strings.ToLower(o.Matcher), mopts.Layer, mopts.Datatype, mopts.Sentinel),
		Topcell: o.Topcell,
	}
}

// slicerRunner returns the configured slicer, defaulting to the DeScribe
// executable from the tool configuration.
func (o *Options) slicerRunner() slicer.Runner {
	if o.Slicer != nil {
		return o.Slicer
	}
	return &slicer.Slicer{Path: o.Config.Paths.DeScribe, Logger: o.Logger}
}
