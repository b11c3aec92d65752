package cli

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/pipeline"
	"github.com/nanofab/descript/pkg/stl"
)

// targetsOpts holds the command-line flags for the targets command.
type targetsOpts struct {
	topcell      string
	matcher      string
	stlDirs      []string
	nonRecursive bool
	noCache      bool
}

// targetsCommand creates the targets command listing a layout's
// resolved print targets without compiling anything.
func (c *CLI) targetsCommand() *cobra.Command {
	var opts targetsOpts

	cmd := &cobra.Command{
		Use:   "targets <layout.gds>",
		Short: "List the print targets a layout resolves to",
		Long: `List the print targets a layout resolves to.

Each row is one placement of a print cell: its flattened stage
position, rotation, magnification and mirror state, plus the STL mesh
the cell name matches. Unlike run, a target without a mesh is reported
in the table instead of failing the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTargets(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.topcell, "topcell", "t", "", "traversal root cell (default: detected)")
	cmd.Flags().StringVarP(&opts.matcher, "matcher", "m", "", "target matcher: layer, layerdatatype, printzone")
	cmd.Flags().StringSliceVarP(&opts.stlDirs, "stl", "s", nil, "STL search directory (repeatable; default: the layout's directory)")
	cmd.Flags().BoolVar(&opts.nonRecursive, "nonrecursive", false, "do not search STL directories recursively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runTargets(ctx context.Context, layoutPath string, opts targetsOpts) error {
	cfg, err := c.configValue()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, cached, err := runner.ResolveWithCacheInfo(ctx, pipeline.Options{
		LayoutPath: layoutPath,
		Topcell:    opts.topcell,
		Matcher:    opts.matcher,
		Config:     cfg,
		Logger:     c.Logger,
	})
	if err != nil {
		return err
	}

	dirs := opts.stlDirs
	if len(dirs) == 0 {
		dirs = []string{filepath.Dir(layoutPath)}
	}
	paths, err := stl.Find(dirs, !opts.nonRecursive)
	if err != nil {
		return err
	}
	stems := make(map[string]string, len(paths))
	for _, p := range paths {
		if _, ok := stems[stl.Stem(p)]; !ok {
			stems[stl.Stem(p)] = p
		}
	}

	targets := res.Targets
	missing := 0
	for i := range targets {
		mesh, ok := stems[targets[i].Cell]
		if !ok {
			missing++
			continue
		}
		targets[i].Mesh = mesh
	}

	printInfo("%d print targets in %s, top cell %s",
		len(targets), StyleHighlight.Render(res.Library), StyleHighlight.Render(res.Topcell))
	fmt.Println(targetTable(targets, true))
	if missing > 0 {
		printWarning("%d targets have no matching STL mesh", missing)
	}
	printStats(len(targets), 0, 0, 0, cached)
	printNewline()
	printNextStep("Compile", fmt.Sprintf("%s run %s -o <dir>", appName, layoutPath))

	return nil
}

// targetTable renders placements as a bordered table. With withMesh the
// table carries a Mesh column showing the matched file's base name.
func targetTable(placements []pipeline.Placement, withMesh bool) string {
	headers := []string{"#", "Cell", "X", "Y", "Rot", "Mag", "Mirror"}
	if withMesh {
		headers = append(headers, "Mesh")
	}

	rows := make([][]string, 0, len(placements))
	for i, p := range placements {
		row := []string{
			fmt.Sprintf("%d", i+1),
			p.Cell,
			fmtNum(p.Transform.Origin.X),
			fmtNum(p.Transform.Origin.Y),
			fmtNum(p.Transform.Rotation * 180 / math.Pi),
			fmtNum(p.Transform.Magnification),
			mirrorLabel(p.Transform.XReflection),
		}
		if withMesh {
			row = append(row, meshLabel(p.Mesh))
		}
		rows = append(rows, row)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// fmtNum renders a coordinate or angle with six significant digits so
// that radian-to-degree round trips do not leak float noise into the
// table.
func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func mirrorLabel(mirrored bool) string {
	if mirrored {
		return "yes"
	}
	return ""
}

func meshLabel(path string) string {
	if path == "" {
		return "—"
	}
	return filepath.Base(path)
}
