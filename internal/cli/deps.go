package cli

import (
	"io/fs"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/executor"
	"github.com/roskakori/nubops/internal/platform"
	"github.com/roskakori/nubops/internal/template"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader     ConfigLoader
	PlatformDetector PlatformDetector
	RootChecker      RootChecker
	Executor         executor.CommandExecutor
	Prompter         Prompter
	TemplateSource   TemplateSource
}

// ConfigLoader handles configuration loading and saving
type ConfigLoader interface {
	// Load reads the config at path, or the default config for an empty path
	Load(path string) (*config.Config, error)
	Save(cfg *config.Config) error
}

// PlatformDetector handles host distribution detection
type PlatformDetector interface {
	Detect() (*platform.Release, error)
}

// RootChecker checks root privileges
type RootChecker interface {
	RequireRoot() error
}

// Prompter asks the user for values
type Prompter interface {
	Input(message, help, def string, validate func(string) error) (string, error)
	Select(message, help string, options []string, def string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// TemplateSource opens the recipe templates
type TemplateSource interface {
	// Open returns the recipes in folder, or the embedded recipes for an empty folder
	Open(folder string) (fs.FS, error)
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader:     &realConfigLoader{},
	PlatformDetector: &realPlatformDetector{},
	RootChecker:      &realRootChecker{},
	Executor:         executor.NewSystemExecutor(),
	Prompter:         &surveyPrompter{},
	TemplateSource:   &realTemplateSource{},
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to existing functions

type realConfigLoader struct{}

func (r *realConfigLoader) Load(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func (r *realConfigLoader) Save(cfg *config.Config) error {
	return cfg.Save()
}

type realPlatformDetector struct{}

func (r *realPlatformDetector) Detect() (*platform.Release, error) {
	return platform.Detect()
}

type realRootChecker struct{}

func (r *realRootChecker) RequireRoot() error {
	if os.Geteuid() != 0 {
		return errRootRequired
	}
	return nil
}

type realTemplateSource struct{}

func (r *realTemplateSource) Open(folder string) (fs.FS, error) {
	return template.Open(folder)
}

// surveyPrompter asks on the terminal
type surveyPrompter struct{}

func (p *surveyPrompter) Input(message, help, def string, validate func(string) error) (string, error) {
	var out string
	prompt := &survey.Input{
		Message: message,
		Help:    help,
		Default: def,
	}
	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			text, _ := ans.(string)
			return validate(text)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Select(message, help string, options []string, def string) (string, error) {
	var out string
	prompt := &survey.Select{
		Message: message,
		Help:    help,
		Options: options,
	}
	if def != "" {
		prompt.Default = def
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

// errAborted is returned when the user interrupts a prompt
var errAborted = errors.Validation("aborted by user")

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
