package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/gwl"
)

// commandsCommand creates the commands command listing the GWL
// instruction registry.
func (c *CLI) commandsCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the supported GWL instructions",
		Long: `List the supported GWL instructions.

Each row shows an instruction keyword, the argument shape it takes and
its default rendering. The list comes from the same registry the
parser, checker and assembler share.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommands(filter)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "only keywords containing this substring (case-insensitive)")

	return cmd
}

func runCommands(filter string) error {
	needle := strings.ToLower(filter)

	var rows int
	for _, kind := range gwl.Kinds() {
		spec, ok := gwl.Lookup(kind)
		if !ok || spec.Keyword == "" || kind == gwl.KindComment {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(spec.Keyword), needle) {
			continue
		}
		fmt.Printf("%s %s %s\n",
			styleCommand.Render(fmt.Sprintf("%-28s", spec.Keyword)),
			StyleDim.Render(fmt.Sprintf("%-8s", argLabel(spec.Arg))),
			StyleValue.Render(gwl.New(kind).String()),
		)
		rows++
	}

	if rows == 0 {
		printWarning("No instructions match %q", filter)
		return nil
	}
	printNewline()
	printDetail("%d instructions", rows)
	return nil
}

// argLabel names an argument shape for display. No-argument kinds show
// an empty column.
func argLabel(a gwl.Arg) string {
	switch a {
	case gwl.ArgInt:
		return "int"
	case gwl.ArgFloat:
		return "float"
	case gwl.ArgRaw:
		return "raw"
	case gwl.ArgQuoted:
		return "quoted"
	case gwl.ArgVarName:
		return "var"
	case gwl.ArgPath:
		return "path"
	case gwl.ArgAssign:
		return "assign"
	}
	return ""
}
