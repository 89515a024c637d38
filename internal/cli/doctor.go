package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/executor"
	"github.com/roskakori/nubops/internal/output"
	"github.com/roskakori/nubops/internal/template"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the host, the configuration and the recipes.

Checks:
  - Distribution (recipes are written for Ubuntu)
  - Root privileges needed to run recipe scripts
  - Tools used by recipe scripts (sh, apt-get, systemctl)
  - Configuration file validity
  - Recipe templates

Examples:
  nubops doctor
  nubops doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// RecipeStatus represents the status of a single recipe
type RecipeStatus struct {
	Name   string        `json:"name"`
	Checks []CheckResult `json:"checks"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	Version            string         `json:"version"`
	SystemRequirements []CheckResult  `json:"system_requirements"`
	Configuration      []CheckResult  `json:"configuration"`
	Recipes            []RecipeStatus `json:"recipes"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}

	// Run all checks
	report := &DoctorReport{Version: version}
	report.SystemRequirements = checkSystemRequirements(ctx, deps.Executor)
	var fsys fs.FS
	report.Configuration, fsys = checkConfiguration()
	report.Recipes = checkRecipes(fsys)

	// Output results
	if jsonOutput {
		return output.JSON(report)
	}

	displayDoctorResults(report)
	return nil
}

func checkSystemRequirements(ctx context.Context, exec executor.CommandExecutor) []CheckResult {
	results := []CheckResult{}

	// Distribution
	if release, err := deps.PlatformDetector.Detect(); err != nil {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("Distribution unknown: %v", err),
		})
	} else if release.IsUbuntu() {
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("Distribution %s", release),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("Distribution %s is not Ubuntu, recipes may not work", release),
		})
	}

	// Root
	if err := deps.RootChecker.RequireRoot(); err == nil {
		results = append(results, CheckResult{
			Status:  "success",
			Message: "Running as root",
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: "Not running as root, scripts require sudo",
		})
	}

	// Version extraction patterns
	versionPatterns := map[string]*regexp.Regexp{
		"apt-get":   regexp.MustCompile(`apt (\d+\.\d+(?:\.\d+)?)`),
		"systemctl": regexp.MustCompile(`systemd (\d+)`),
	}

	// Check tools used by recipe scripts
	tools := []struct {
		name        string
		binary      string
		versionFlag string
		optional    bool
	}{
		{"sh", "sh", "", false},
		{"apt-get", "apt-get", "--version", true},
		{"systemctl", "systemctl", "--version", true},
	}

	for _, tool := range tools {
		if _, err := exec.LookPath(tool.binary); err == nil {
			version := ""
			if tool.versionFlag != "" {
				version = "unknown"
				versionOutput, err := exec.Execute(ctx, tool.binary, tool.versionFlag)
				if err == nil {
					if pattern, ok := versionPatterns[tool.binary]; ok {
						if matches := pattern.FindStringSubmatch(string(versionOutput)); len(matches) >= 2 {
							version = matches[1]
						}
					}
				}
			}
			message := fmt.Sprintf("%s installed", tool.name)
			if version != "" {
				message += fmt.Sprintf(" (%s)", version)
			}
			results = append(results, CheckResult{
				Status:  "success",
				Message: message,
			})
		} else {
			status := "error"
			suffix := ""
			if tool.optional {
				status = "warning"
				suffix = " (needed by most recipes)"
			}
			results = append(results, CheckResult{
				Status:  status,
				Message: fmt.Sprintf("%s not installed%s", tool.name, suffix),
			})
		}
	}

	return results
}

// checkConfiguration checks the config file and returns the recipe
// filesystem it selects
func checkConfiguration() ([]CheckResult, fs.FS) {
	results := []CheckResult{}

	// Check config file exists
	path := configPath
	if path == "" {
		defaultPath, err := config.ConfigPath()
		if err != nil {
			results = append(results, CheckResult{
				Status:  "error",
				Message: "Could not determine config path",
			})
		}
		path = defaultPath
	}
	if path != "" {
		// Use ~ notation for display
		displayPath := path
		if home := os.Getenv("HOME"); home != "" {
			displayPath = strings.Replace(path, home, "~", 1)
		}
		if _, err := os.Stat(path); err == nil {
			results = append(results, CheckResult{
				Status:  "success",
				Message: fmt.Sprintf("Config file exists (%s)", displayPath),
			})
		} else {
			results = append(results, CheckResult{
				Status:  "warning",
				Message: fmt.Sprintf("Config file not found (%s), using defaults; run 'nubops init'", displayPath),
			})
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		results = append(results, CheckResult{
			Status:  "error",
			Message: err.Error(),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("Config valid (mode %s, target folder %s)", cfg.Mode, cfg.TargetFolder),
		})
	}

	folder := templatesFolder()
	fsys, err := deps.TemplateSource.Open(folder)
	switch {
	case err != nil:
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Cannot open recipes in %s: %v", folder, err),
		})
	case folder == "":
		results = append(results, CheckResult{
			Status:  "success",
			Message: "Using built-in recipes",
		})
	default:
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("Using recipes in %s", folder),
		})
	}

	return results, fsys
}

func checkRecipes(fsys fs.FS) []RecipeStatus {
	statuses := []RecipeStatus{}
	if fsys == nil {
		return statuses
	}

	names, err := template.RecipeNames(fsys)
	if err != nil {
		return statuses
	}

	for _, name := range names {
		status := RecipeStatus{
			Name:   name,
			Checks: []CheckResult{},
		}
		recipe, err := template.LoadRecipe(fsys, name)
		if err == nil {
			err = checkRecipe(recipe)
		}
		if err != nil {
			status.Checks = append(status.Checks, CheckResult{
				Status:  "error",
				Message: err.Error(),
			})
		} else {
			status.Checks = append(status.Checks, CheckResult{
				Status:  "success",
				Message: fmt.Sprintf("%d file(s), %d script(s)", len(recipe.Contents), len(recipe.Scripts)),
			})
		}
		statuses = append(statuses, status)
	}

	return statuses
}

func displayDoctorResults(report *DoctorReport) {
	// System requirements
	output.Print("Checking system requirements...")
	for _, check := range report.SystemRequirements {
		displayCheck(check)
	}
	output.Print("")

	// Configuration
	output.Print("Checking configuration...")
	for _, check := range report.Configuration {
		displayCheck(check)
	}
	output.Print("")

	// Recipes
	if len(report.Recipes) > 0 {
		output.Print("Checking recipes...")
		for _, recipe := range report.Recipes {
			// Get the main check result
			if len(recipe.Checks) > 0 {
				mainCheck := recipe.Checks[len(recipe.Checks)-1]
				switch mainCheck.Status {
				case "success":
					output.Success("%s - %s", recipe.Name, mainCheck.Message)
				case "warning":
					output.Warn("%s - %s", recipe.Name, mainCheck.Message)
				case "error":
					output.Error("%s - %s", recipe.Name, mainCheck.Message)
				}
			}
		}
	} else {
		output.Print("No recipes found")
	}
}

func displayCheck(check CheckResult) {
	switch check.Status {
	case "success":
		output.Success("%s", check.Message)
	case "warning":
		output.Warn("%s", check.Message)
	case "error":
		output.Error("%s", check.Message)
	}
}
