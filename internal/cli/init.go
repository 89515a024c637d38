package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/output"
	"github.com/roskakori/nubops/internal/subst"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration interactively",
	Long: `Ask for the default build mode, target folder and shared symbols and
write them to the configuration file.

Symbols from the configuration are available to all recipes but have the
lowest precedence: recipe defaults, --set values, arguments and option
flags override them.

Examples:
  nubops init
  nubops init --config ./staging.yaml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

type initResult struct {
	Path         string            `json:"path"`
	Mode         config.Mode       `json:"mode"`
	TargetFolder string            `json:"target_folder"`
	Templates    string            `json:"templates,omitempty"`
	Symbols      map[string]string `json:"symbols"`
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Path() != "" && fileExists(cfg.Path()) {
		replace, err := deps.Prompter.Confirm(fmt.Sprintf("Update existing config %s?", cfg.Path()), true)
		if err != nil {
			return err
		}
		if !replace {
			output.Info("Config unchanged")
			return nil
		}
	}

	modes := make([]string, 0, len(config.ValidModes()))
	for _, mode := range config.ValidModes() {
		modes = append(modes, string(mode))
	}
	mode, err := deps.Prompter.Select("Default build mode:",
		"show prints what would change, write refuses to replace existing files, overwrite replaces them",
		modes, string(cfg.Mode))
	if err != nil {
		return err
	}
	cfg.Mode = config.Mode(mode)

	cfg.TargetFolder, err = deps.Prompter.Input("Target folder:",
		"Absolute target paths of recipes are placed below this folder; scripts only run for /",
		cfg.TargetFolder, validateAbsoluteFolder)
	if err != nil {
		return err
	}

	cfg.Templates, err = deps.Prompter.Input("Recipe folder (empty for built-in recipes):",
		"A folder with one sub folder per recipe",
		cfg.Templates, nil)
	if err != nil {
		return err
	}
	cfg.Templates = strings.TrimSpace(cfg.Templates)

	for {
		entry, err := deps.Prompter.Input("Symbol as name=value (empty to finish):",
			"Symbols like user=deploy are available to all recipes", "", validateSymbolEntry)
		if err != nil {
			return err
		}
		entry = strings.TrimSpace(entry)
		if entry == "" {
			break
		}
		name, value, _ := strings.Cut(entry, "=")
		if err := cfg.SetSymbol(strings.TrimSpace(name), value); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := deps.ConfigLoader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	result := initResult{
		Path:         cfg.Path(),
		Mode:         cfg.Mode,
		TargetFolder: cfg.TargetFolder,
		Templates:    cfg.Templates,
		Symbols:      cfg.Symbols,
	}
	return outputResult(result, "Wrote config %s", cfg.Path())
}

func validateAbsoluteFolder(folder string) error {
	if !filepath.IsAbs(folder) {
		return fmt.Errorf("folder must be an absolute path: %s", folder)
	}
	return nil
}

func validateSymbolEntry(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}
	name, _, ok := strings.Cut(entry, "=")
	if !ok {
		return fmt.Errorf("must be name=value but is: %s", entry)
	}
	if !subst.IsIdentifier(strings.TrimSpace(name)) {
		return fmt.Errorf("name must be an identifier like project_dir but is: %s", name)
	}
	return nil
}
