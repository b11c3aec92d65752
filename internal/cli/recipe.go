package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/recipe"
)

// recipeCommand groups the recipe tooling.
func (c *CLI) recipeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Inspect and write slicing recipes",
	}

	cmd.AddCommand(c.recipeShowCommand())
	cmd.AddCommand(c.recipeWriteCommand())

	return cmd
}

func (c *CLI) recipeShowCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective recipe",
		Long: `Print the effective recipe.

Without --recipe this is the built-in defaults with the [recipe]
section of the config applied on top. With --recipe the given file is
printed as loaded, config overrides do not apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rcp, err := c.effectiveRecipe(path)
			if err != nil {
				return err
			}
			return rcp.Write(os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&path, "recipe", "r", "", "recipe file (default: built-in defaults plus config overrides)")

	return cmd
}

func (c *CLI) recipeWriteCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "write [file]",
		Short: "Write the effective recipe to a file",
		Long: `Write the effective recipe to a file.

The file is a starting point for hand-tuned recipes passed to run via
--recipe. Without an argument the recipe is written to default.recipe
in the working directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := "default.recipe"
			if len(args) == 1 {
				out = args[0]
			}
			rcp, err := c.effectiveRecipe(path)
			if err != nil {
				return err
			}
			if err := rcp.WriteFile(out); err != nil {
				return err
			}
			printSuccess("Recipe written")
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "recipe", "r", "", "recipe file to copy from (default: built-in defaults plus config overrides)")

	return cmd
}

// effectiveRecipe resolves the recipe the pipeline would slice with: an
// explicit file as-is, otherwise defaults overlaid with the config's
// [recipe] section.
func (c *CLI) effectiveRecipe(path string) (*recipe.Recipe, error) {
	if path != "" {
		return recipe.Load(path)
	}
	cfg, err := c.configValue()
	if err != nil {
		return nil, err
	}
	rcp := recipe.New()
	if err := cfg.OverlayRecipe(rcp); err != nil {
		return nil, err
	}
	return rcp, nil
}
