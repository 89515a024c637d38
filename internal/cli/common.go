package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/logger"
	"github.com/roskakori/nubops/internal/output"
	"github.com/roskakori/nubops/internal/subst"
)

// errRootRequired is the sentinel error for root privilege check
var errRootRequired = errors.Permission("running recipe scripts requires root privileges. Please run with sudo or use --mode=show")

// loadConfig loads the config from --config or the default path
func loadConfig() (*config.Config, error) {
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.DebugFields("loaded config", map[string]interface{}{
		"path":          cfg.Path(),
		"mode":          string(cfg.Mode),
		"target_folder": cfg.TargetFolder,
	})
	return cfg, nil
}

// buildMode returns the mode from --mode, falling back to the config
func buildMode(cfg *config.Config) (config.Mode, error) {
	if modeFlag == "" {
		return cfg.Mode, nil
	}
	mode := config.Mode(modeFlag)
	if !config.IsValidMode(mode) {
		return "", errors.Validation(fmt.Sprintf("invalid mode: %s. Valid modes: %s", modeFlag, modeNames()))
	}
	return mode, nil
}

// buildTargetFolder returns the absolute folder from --target-folder,
// falling back to the config
func buildTargetFolder(cfg *config.Config) (string, error) {
	folder := targetFolder
	if folder == "" {
		folder = cfg.TargetFolder
	}
	if folder == "" {
		return "/", nil
	}
	absFolder, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("invalid target folder %s: %w", folder, err)
	}
	return absFolder, nil
}

// parseSets turns --set name=value pairs into symbols
func parseSets(values []string) (map[string]string, error) {
	result := make(map[string]string, len(values))
	for _, value := range values {
		name, symbolValue, ok := strings.Cut(value, "=")
		name = strings.TrimSpace(name)
		if !ok {
			return nil, errors.Validation(fmt.Sprintf("--set must be name=value but is: %s", value))
		}
		if !subst.IsIdentifier(name) {
			return nil, errors.Validation(fmt.Sprintf("--set name must be an identifier like project_dir but is: %s", name))
		}
		result[name] = symbolValue
	}
	return result, nil
}

// warnUnlessUbuntu warns when scripts are about to run on a host that
// is not Ubuntu
func warnUnlessUbuntu() {
	release, err := deps.PlatformDetector.Detect()
	if err != nil {
		logger.Debug("cannot detect distribution: %v", err)
		warn("Cannot detect distribution, recipes are written for Ubuntu")
		return
	}
	if !release.IsUbuntu() {
		warn("Recipes are written for Ubuntu but this host runs %s", release)
	}
}

// warn prints a warning for the user. With --json stdout only carries the
// report, so the warning goes to the log on stderr instead.
func warn(format string, args ...interface{}) {
	if jsonOutput {
		logger.Warn(format, args...)
		return
	}
	output.Warn(format, args...)
}

// outputResult handles JSON or human-readable output
func outputResult(data interface{}, successMsg string, args ...interface{}) error {
	if jsonOutput {
		return output.JSON(data)
	}
	output.Success(successMsg, args...)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func modeNames() string {
	names := make([]string, 0, len(config.ValidModes()))
	for _, mode := range config.ValidModes() {
		names = append(names, string(mode))
	}
	return strings.Join(names, ", ")
}
