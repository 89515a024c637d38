package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roskakori/nubops/internal/output"
	"github.com/roskakori/nubops/internal/template"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all recipes",
	Long: `List all recipes with their arguments and the files they write.

Examples:
  nubops list
  nubops ls
  nubops list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type recipeListItem struct {
	Name      string   `json:"name"`
	Short     string   `json:"short"`
	Arguments []string `json:"arguments"`
	Options   []string `json:"options"`
	Targets   []string `json:"targets"`
	Scripts   []string `json:"scripts"`
}

func runList(cmd *cobra.Command, args []string) error {
	fsys, err := deps.TemplateSource.Open(templatesFolder())
	if err != nil {
		return err
	}
	names, err := template.RecipeNames(fsys)
	if err != nil {
		return err
	}

	// RecipeNames is sorted, so items are too
	items := make([]recipeListItem, 0, len(names))
	for _, name := range names {
		recipe, err := template.LoadRecipe(fsys, name)
		if err != nil {
			output.Warn("Could not read recipe %s: %v", name, err)
			continue
		}
		items = append(items, newRecipeListItem(recipe))
	}

	if jsonOutput {
		return output.JSON(items)
	}

	if len(items) == 0 {
		output.Info("No recipes found")
		return nil
	}

	headers := []string{"RECIPE", "ARGUMENTS", "FILES", "DESCRIPTION"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		arguments := make([]string, len(item.Arguments))
		for i, arg := range item.Arguments {
			arguments[i] = "<" + arg + ">"
		}
		rows = append(rows, []string{
			item.Name,
			strings.Join(arguments, " "),
			strings.Join(item.Targets, "\n"),
			item.Short,
		})
	}

	output.Table(headers, rows)
	return nil
}

func newRecipeListItem(recipe *template.Recipe) recipeListItem {
	item := recipeListItem{
		Name:      recipe.Name,
		Short:     recipe.Short,
		Arguments: []string{},
		Options:   []string{},
		Targets:   []string{},
		Scripts:   []string{},
	}
	for _, arg := range recipe.Arguments {
		item.Arguments = append(item.Arguments, arg.Name)
	}
	for _, opt := range recipe.Options {
		item.Options = append(item.Options, opt.Name)
	}
	for _, content := range recipe.Contents {
		item.Targets = append(item.Targets, content.Target)
	}
	for _, kind := range template.ScriptKinds() {
		if _, ok := recipe.Scripts[kind]; ok {
			item.Scripts = append(item.Scripts, kind.ShName())
		}
	}
	return item
}
