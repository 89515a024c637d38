package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roskakori/nubops/internal/builder"
	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/logger"
	"github.com/roskakori/nubops/internal/output"
	"github.com/roskakori/nubops/internal/symbols"
	"github.com/roskakori/nubops/internal/template"
)

// reservedFlags cannot be used as recipe option names
var reservedFlags = map[string]bool{
	"config":        true,
	"help":          true,
	"json":          true,
	"mode":          true,
	"set":           true,
	"target-folder": true,
	"verbose":       true,
	"version":       true,
}

// templatesFolder returns the recipe folder from the environment or the
// config given by --config. An empty result selects the embedded recipes.
func templatesFolder() string {
	if folder := os.Getenv(templatesEnv); folder != "" {
		logger.InfoFields("recipe source", map[string]interface{}{"env": templatesEnv, "folder": folder})
		return folder
	}
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		logger.Debug("using embedded recipes, config not readable: %v", err)
		return ""
	}
	logger.InfoFields("recipe source", map[string]interface{}{"config": cfg.Path(), "folder": cfg.Templates})
	return cfg.Templates
}

// registerRecipeCommands adds one sub command per recipe to rootCmd
func registerRecipeCommands() error {
	folder := templatesFolder()
	fsys, err := deps.TemplateSource.Open(folder)
	if err != nil {
		warn("Cannot open recipes in %s, using built-in recipes: %v", folder, err)
		fsys = template.Embedded()
	}
	return addRecipeCommands(rootCmd, fsys)
}

// checkRecipe reports problems that keep recipe from becoming a command
// or from ever resolving its symbols
func checkRecipe(recipe *template.Recipe) error {
	for _, arg := range recipe.Arguments {
		if !symbols.HasKind(arg.Validate) {
			return fmt.Errorf("recipe %s: argument %s uses unknown validation %q (available: %s)",
				recipe.Name, arg.Name, arg.Validate, strings.Join(symbols.Kinds(), ", "))
		}
	}
	for _, opt := range recipe.Options {
		if reservedFlags[opt.Name] {
			return fmt.Errorf("recipe %s: option --%s conflicts with a global flag", recipe.Name, opt.Name)
		}
		if !symbols.HasKind(opt.Validate) {
			return fmt.Errorf("recipe %s: option --%s uses unknown validation %q (available: %s)",
				recipe.Name, opt.Name, opt.Validate, strings.Join(symbols.Kinds(), ", "))
		}
	}
	return nil
}

// addRecipeCommands adds a sub command to parent for every recipe in fsys.
// Recipes that already have a command are skipped.
func addRecipeCommands(parent *cobra.Command, fsys fs.FS) error {
	names, err := template.RecipeNames(fsys)
	if err != nil {
		return fmt.Errorf("cannot list recipes: %w", err)
	}

	existing := make(map[string]bool)
	for _, cmd := range parent.Commands() {
		existing[cmd.Name()] = true
	}

	var problems []string
	for _, name := range names {
		if existing[name] {
			continue
		}
		recipe, err := template.LoadRecipe(fsys, name)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		cmd, err := newRecipeCommand(recipe)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		parent.AddCommand(cmd)
	}

	if len(problems) > 0 {
		return fmt.Errorf("skipped broken recipes:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// newRecipeCommand creates the command that builds recipe
func newRecipeCommand(recipe *template.Recipe) (*cobra.Command, error) {
	if err := checkRecipe(recipe); err != nil {
		return nil, err
	}

	use := recipe.Name
	for _, arg := range recipe.Arguments {
		use += " <" + arg.Name + ">"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: recipe.Short,
		Long:  recipeLong(recipe),
		Args:  cobra.ExactArgs(len(recipe.Arguments)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipe(cmd, recipe, args)
		},
	}

	for _, opt := range recipe.Options {
		cmd.Flags().String(opt.Name, opt.Default, opt.Help)
	}

	return cmd, nil
}

func recipeLong(recipe *template.Recipe) string {
	var b strings.Builder
	if recipe.Long != "" {
		b.WriteString(strings.TrimSpace(recipe.Long))
	} else {
		b.WriteString(recipe.Short)
	}

	if len(recipe.Arguments) > 0 {
		b.WriteString("\n\nArguments:")
		for _, arg := range recipe.Arguments {
			fmt.Fprintf(&b, "\n  %-14s %s", arg.Name, arg.Help)
		}
	}

	if len(recipe.Contents) > 0 {
		b.WriteString("\n\nFiles:")
		for _, content := range recipe.Contents {
			fmt.Fprintf(&b, "\n  %s", content.Target)
		}
	}

	if len(recipe.Scripts) > 0 {
		b.WriteString("\n\nScripts:")
		for _, kind := range template.ScriptKinds() {
			if _, ok := recipe.Scripts[kind]; ok {
				fmt.Fprintf(&b, "\n  %s", kind.ShName())
			}
		}
	}
	return b.String()
}

// optionFlags returns the option flags given on the command line, by symbol
// name. Flags left at their default are resolved from the recipe instead.
func optionFlags(cmd *cobra.Command, recipe *template.Recipe) map[string]string {
	result := make(map[string]string)
	for _, opt := range recipe.Options {
		flag := cmd.Flags().Lookup(opt.Name)
		if flag == nil || !flag.Changed {
			continue
		}
		result[template.SymbolName(opt.Name)] = flag.Value.String()
	}
	return result
}

func runRecipe(cmd *cobra.Command, recipe *template.Recipe, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mode, err := buildMode(cfg)
	if err != nil {
		return err
	}
	folder, err := buildTargetFolder(cfg)
	if err != nil {
		return err
	}
	sets, err := parseSets(setValues)
	if err != nil {
		return err
	}

	symbolMap, err := symbols.Resolve(recipe, symbols.Input{
		Config: cfg.Symbols,
		Sets:   sets,
		Args:   args,
		Flags:  optionFlags(cmd, recipe),
	})
	if err != nil {
		return err
	}

	opts := builder.Options{
		Mode:         mode,
		TargetFolder: folder,
		Executor:     deps.Executor,
		Silent:       jsonOutput,
	}
	if jsonOutput {
		opts.ScriptOutput = os.Stderr
	}
	b, err := builder.New(recipe, symbolMap, opts)
	if err != nil {
		return err
	}

	if b.RunsScripts() {
		if err := deps.RootChecker.RequireRoot(); err != nil {
			return err
		}
		warnUnlessUbuntu()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := b.Build(ctx)
	if err != nil {
		return err
	}
	return printReport(report)
}

func printReport(report *builder.Report) error {
	if jsonOutput {
		return output.JSON(report)
	}
	if report.Mode == config.ModeShow {
		return nil
	}

	for _, f := range report.Files {
		switch f.Action {
		case builder.ActionWrite:
			output.Success("Wrote %s", f.Target)
		case builder.ActionOverwrite:
			output.Success("Overwrote %s", f.Target)
		case builder.ActionKeep:
			output.Info("Kept existing %s", f.Target)
		}
	}
	for _, s := range report.Scripts {
		switch s.Action {
		case builder.ActionRun:
			output.Success("Ran %s", s.Script)
		case builder.ActionSkip:
			output.Info("Skipped %s, scripts only run with --target-folder=/", s.Script)
		}
	}
	return nil
}
