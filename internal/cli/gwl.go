package cli

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/gwl"
)

// gwlCommand groups the GWL script tooling.
func (c *CLI) gwlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gwl",
		Short: "Check and format GWL scripts",
	}

	cmd.AddCommand(c.gwlCheckCommand())
	cmd.AddCommand(c.gwlFmtCommand())

	return cmd
}

func (c *CLI) gwlCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <script.gwl>",
		Short: "Check a GWL script against the instruction registry",
		Long: `Check a GWL script against the instruction registry.

Every line must parse as a known instruction with a well-formed
argument. Each invalid line is reported with its line number, and the
command exits non-zero when any line fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGwlCheck(args[0])
		},
	}
}

func (c *CLI) runGwlCheck(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "open script %s", path)
	}
	defer f.Close()

	var parser gwl.Parser
	scanner := bufio.NewScanner(f)
	var instructions, bad int
	for line := 1; scanner.Scan(); line++ {
		in, err := parser.Parse(scanner.Text())
		if err != nil {
			printError("line %d: %s", line, errors.UserMessage(err))
			bad++
			continue
		}
		if in.Kind != gwl.KindComment && in.Kind != gwl.KindEmpty {
			instructions++
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "read script %s", path)
	}

	if bad > 0 {
		return errors.New(errors.ErrCodeParse, "%d invalid lines in %s", bad, path)
	}
	printSuccess("%s is valid (%d instructions)", path, instructions)
	return nil
}

func (c *CLI) gwlFmtCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fmt <script.gwl>",
		Short: "Rewrite a GWL script in canonical form",
		Long: `Rewrite a GWL script in canonical form.

The script is parsed tolerantly, unknown instructions pass through
verbatim, and every recognized instruction is re-rendered with
canonical keyword casing and argument formatting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGwlFmt(args[0], out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runGwlFmt(path, out string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "open script %s", path)
	}
	defer f.Close()

	parser := gwl.Parser{AllowUnknown: true}
	doc, err := parser.ParseAll(f)
	if err != nil {
		return err
	}

	if out == "" {
		return doc.Render(os.Stdout)
	}
	w, err := os.Create(out)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", out)
	}
	if err := doc.Render(w); err != nil {
		w.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", out)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", out)
	}

	printSuccess("Formatted %s", path)
	printFile(out)
	return nil
}
