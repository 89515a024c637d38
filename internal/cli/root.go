package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roskakori/nubops/internal/logger"
)

var (
	jsonOutput   bool
	verbose      bool
	modeFlag     string
	targetFolder string
	configPath   string
	setValues    []string
	version      = "dev"
)

// templatesEnv selects a folder with recipes instead of the embedded ones
const templatesEnv = "NUBOPS_TEMPLATES"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nubops",
	Short: "Build Ubuntu server configurations from recipes",
	Long: `nubops renders configuration files and shell scripts from recipes and
applies them to an Ubuntu server.

Every recipe is a sub command. By default recipes only show what they would
do; use --mode=write to write new files or --mode=overwrite to also replace
existing ones. Recipe scripts only run when writing to the target folder "/".

Examples:
  nubops list
  nubops nginx-django production shop shop.example.com
  sudo nubops --mode=write nginx-django production shop shop.example.com
  nubops --mode=write --target-folder=/tmp/stage fail2ban
  nubops --set user=deploy nginx-django test shop test.example.com`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	// Initialize logger based on verbose flag (parsed by cobra)
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	// Recipe commands depend on --config, so read it before cobra parses
	// the command line
	preparseFlags(os.Args[1:])
	if err := registerRecipeCommands(); err != nil {
		warn("%v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// preparseFlags sets the global flags that recipe registration depends on.
// Everything else, including unknown flags and errors, is left to cobra.
func preparseFlags(args []string) {
	flags := pflag.NewFlagSet("nubops", pflag.ContinueOnError)
	flags.ParseErrorsAllowlist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	flags.StringVar(&configPath, "config", configPath, "")
	flags.BoolVar(&jsonOutput, "json", jsonOutput, "")
	flags.BoolP("verbose", "v", false, "")
	if err := flags.Parse(args); err != nil {
		logger.Debug("cannot preparse flags: %v", err)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Build mode: show, write or overwrite (default from config, else show)")
	rootCmd.PersistentFlags().StringVar(&targetFolder, "target-folder", "", "Folder absolute target paths are placed below (default from config, else /)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/nubops/config.yaml)")
	rootCmd.PersistentFlags().StringArrayVar(&setValues, "set", nil, "Set a symbol, e.g. --set user=deploy (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
}
