package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/pipeline"
	"github.com/nanofab/descript/pkg/preview"
)

// serveCommand creates the serve command previewing a compiled run
// directory in the browser.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [run-dir]",
		Short: "Serve a compiled run directory for browser preview",
		Long: `Serve a compiled run directory for browser preview.

The page shows the run manifest, the resolved target table, the
hierarchy graph and the assembled job script. The directory must hold
the manifest a run writes next to its job file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runServe(cmd.Context(), dir, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8734", "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, dir, addr string) error {
	cfg, err := c.configValue()
	if err != nil {
		return err
	}

	// Fail before binding when the directory holds no run.
	m, err := pipeline.ReadManifest(filepath.Join(dir, pipeline.ManifestName))
	if err != nil {
		return err
	}

	srv := &preview.Server{Dir: dir, Config: cfg, Logger: c.Logger}

	printInfo("Serving run %s of %s", StyleHighlight.Render(m.RunID), StyleHighlight.Render(m.Library))
	printDetail("Preview: %s", StyleLink.Render("http://"+addr))
	printNewline()

	return srv.ListenAndServe(ctx, addr)
}
