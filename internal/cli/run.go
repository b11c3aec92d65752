package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/gds"
	"github.com/nanofab/descript/pkg/pipeline"
	"github.com/nanofab/descript/pkg/transform"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	out          string   // output directory
	topcell      string   // traversal root override
	matcher      string   // target matcher name
	recipe       string   // base recipe file
	stlDirs      []string // STL search directories
	nonRecursive bool     // restrict the STL search to the directories themselves
	origin       string   // job start position, "x,y" or "bbox"
	name         string   // job script name override
	dryRun       bool     // stop after planning
	interactive  bool     // pick the top cell interactively
	noCache      bool     // bypass the artifact cache
}

// runCommand creates the run command compiling a layout into a print
// job.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOpts{origin: "0,0"}

	cmd := &cobra.Command{
		Use:   "run <layout.gds>",
		Short: "Compile a GDSII layout into a flat GWL print job",
		Long: `Compile a GDSII layout into a flat GWL print job.

The run command resolves the layout's print targets, associates each
target cell with the STL mesh of the same name, slices every distinct
recipe through DeScribe, and assembles a job script that prints each
target at its placed stage position.

Slicer artifacts are cached, so re-running an unchanged layout skips
DeScribe entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (required)")
	cmd.Flags().StringVarP(&opts.topcell, "topcell", "t", "", "traversal root cell (default: detected)")
	cmd.Flags().StringVarP(&opts.matcher, "matcher", "m", "", "target matcher: layer, layerdatatype, printzone")
	cmd.Flags().StringVarP(&opts.recipe, "recipe", "r", "", "base recipe file (default: built-in defaults plus config overrides)")
	cmd.Flags().StringSliceVarP(&opts.stlDirs, "stl", "s", nil, "STL search directory (repeatable; default: the layout's directory)")
	cmd.Flags().BoolVar(&opts.nonRecursive, "nonrecursive", false, "do not search STL directories recursively")
	cmd.Flags().StringVar(&opts.origin, "origin", opts.origin, `job start position: "x,y" or "bbox"`)
	cmd.Flags().StringVar(&opts.name, "name", "", "job script name (default: <library>_job.gwl)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "stop after planning, list the work without slicing")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "pick the top cell interactively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// runRun executes the full compilation pipeline and prints the outcome.
func (c *CLI) runRun(ctx context.Context, layoutPath string, opts runOpts) error {
	origin, err := parseOrigin(opts.origin)
	if err != nil {
		return err
	}
	cfg, err := c.configValue()
	if err != nil {
		return err
	}

	topcell := opts.topcell
	if opts.interactive && topcell == "" {
		topcell, err = c.chooseTopCell(layoutPath)
		if err != nil {
			return err
		}
	}

	// An explicit recipe file is authoritative; overrides from the
	// config's [recipe] section do not apply on top of it.
	if opts.recipe != "" && len(cfg.Recipe) > 0 {
		printWarning("Recipe file %s replaces the [recipe] overrides from the config", opts.recipe)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		LayoutPath:   layoutPath,
		Topcell:      topcell,
		Matcher:      opts.matcher,
		STLDirs:      opts.stlDirs,
		NonRecursive: opts.nonRecursive,
		RecipePath:   opts.recipe,
		OutDir:       opts.out,
		JobName:      opts.name,
		Origin:       origin,
		DryRun:       opts.dryRun,
		Config:       cfg,
		Logger:       c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "Compiling print job...")
	spinner.Start()

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Compilation failed")
		return err
	}
	spinner.Stop()

	if opts.dryRun {
		printInfo("Dry run: %d print targets in library %s", result.Stats.Targets, StyleHighlight.Render(result.Library))
		fmt.Println(targetTable(result.Targets, true))
		printStats(result.Stats.Targets, result.Stats.DistinctRecipes, 0, 0, result.CacheInfo.ResolveHit)
		printNewline()
		printNextStep("Compile", fmt.Sprintf("%s run %s -o %s", appName, layoutPath, opts.out))
		return nil
	}

	printSuccess("Print job assembled")
	printFile(result.JobPath)
	printStats(result.Stats.Targets, result.Stats.DistinctRecipes, result.Stats.SlicerRuns, result.Stats.CacheHits, result.CacheInfo.ResolveHit)
	printNewline()
	printNextStep("Preview", fmt.Sprintf("%s serve %s", appName, opts.out))

	return nil
}

// chooseTopCell reads the library and runs the interactive selector
// over its top-level cells.
func (c *CLI) chooseTopCell(layoutPath string) (string, error) {
	lib, err := gds.ReadFile(layoutPath)
	if err != nil {
		return "", err
	}
	name, err := pickTopCell(lib.TopLevel())
	if err != nil {
		return "", err
	}
	printInfo("Top cell: %s", StyleHighlight.Render(name))
	return name, nil
}

// parseOrigin parses the --origin flag: "bbox" anchors the job at the
// corner of the placement bounding box, "x,y" gives explicit stage
// coordinates in micrometers.
func parseOrigin(s string) (pipeline.Origin, error) {
	if strings.EqualFold(strings.TrimSpace(s), "bbox") {
		return pipeline.Origin{BBox: true}, nil
	}
	xs, ys, found := strings.Cut(s, ",")
	if !found {
		return pipeline.Origin{}, errors.New(errors.ErrCodeInvalidInput,
			`origin %q is neither "x,y" nor "bbox"`, s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return pipeline.Origin{}, errors.New(errors.ErrCodeInvalidInput,
			"origin x %q is not a number", strings.TrimSpace(xs))
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return pipeline.Origin{}, errors.New(errors.ErrCodeInvalidInput,
			"origin y %q is not a number", strings.TrimSpace(ys))
	}
	return pipeline.Origin{At: transform.Vec2{X: x, Y: y}}, nil
}
