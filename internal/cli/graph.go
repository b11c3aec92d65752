package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/gds"
	"github.com/nanofab/descript/pkg/layout"
	"github.com/nanofab/descript/pkg/layout/match"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format   string
	out      string
	topcell  string
	matcher  string
	detailed bool
}

// graphCommand creates the graph command rendering a layout's cell
// hierarchy.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: "svg"}

	cmd := &cobra.Command{
		Use:   "graph <layout.gds>",
		Short: "Render a layout's cell hierarchy as a graph",
		Long: `Render a layout's cell hierarchy as a graph.

Cells become nodes and references become edges, with print cells
highlighted according to the configured matcher. The graph can be
written as Graphviz DOT text or rendered to SVG or PNG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", opts.format, "output format: dot, svg, png")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: <layout>.<format>)")
	cmd.Flags().StringVarP(&opts.topcell, "topcell", "t", "", "traversal root cell (default: detected)")
	cmd.Flags().StringVarP(&opts.matcher, "matcher", "m", "", "target matcher: layer, layerdatatype, printzone")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include polygon and reference counts per cell")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, layoutPath string, opts graphOpts) error {
	format := strings.ToLower(opts.format)
	switch format {
	case "dot", "svg", "png":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "format %q is not dot, svg or png", opts.format)
	}

	cfg, err := c.configValue()
	if err != nil {
		return err
	}
	lib, err := gds.ReadFile(layoutPath)
	if err != nil {
		return err
	}

	var top string
	if opts.topcell != "" {
		cell, err := layout.FindCell(lib, opts.topcell)
		if err != nil {
			return err
		}
		top = cell.Name
	} else {
		cell, err := layout.FindTopCell(lib)
		if err != nil {
			return err
		}
		top = cell.Name
	}

	name := opts.matcher
	if name == "" {
		name = cfg.Layout.Matcher
	}
	matcher, err := match.ByName(name, cfg.MatcherOptions(name))
	if err != nil {
		return err
	}
	if err := matcher.Setup(lib); err != nil {
		return err
	}
	labels := layout.ApplyLabels(lib, matcher.Match)

	dot := layout.ToDOT(lib, layout.DOTOptions{
		Detailed: opts.detailed,
		Labels:   labels,
	})

	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = layout.RenderSVG(dot)
	case "png":
		data, err = layout.RenderPNG(dot)
	}
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		base := filepath.Base(layoutPath)
		out = strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write graph %s", out)
	}

	printSuccess("Rendered hierarchy of %s (top cell %s)",
		StyleHighlight.Render(lib.Name), StyleHighlight.Render(top))
	printFile(out)

	return nil
}
