package cli

import (
	"errors"
	"io/fs"
	"testing/fstest"

	"github.com/roskakori/nubops/internal/config"
	"github.com/roskakori/nubops/internal/executor"
	"github.com/roskakori/nubops/internal/platform"
	"github.com/roskakori/nubops/internal/template"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	SaveErr   error
	LoadPaths []string
	SaveCalls int
}

func (m *MockConfigLoader) Load(path string) (*config.Config, error) {
	m.LoadPaths = append(m.LoadPaths, path)
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	return m.Cfg, nil
}

func (m *MockConfigLoader) Save(cfg *config.Config) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Cfg = cfg
	return nil
}

// MockPlatformDetector is a test double for PlatformDetector
type MockPlatformDetector struct {
	Release *platform.Release
	Err     error
	Calls   int
}

func (m *MockPlatformDetector) Detect() (*platform.Release, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Release != nil {
		return m.Release, nil
	}
	// Return a default Ubuntu release
	return &platform.Release{
		ID:              "ubuntu",
		Name:            "Ubuntu",
		VersionID:       "24.04",
		VersionCodename: "noble",
		PrettyName:      "Ubuntu 24.04.1 LTS",
	}, nil
}

// MockRootChecker is a test double for RootChecker
type MockRootChecker struct {
	IsRoot bool
	Calls  int
}

func (m *MockRootChecker) RequireRoot() error {
	m.Calls++
	if !m.IsRoot {
		return errRootRequired
	}
	return nil
}

// MockPrompter is a test double for Prompter. Answers are consumed in order
// by Input and Select; Confirm uses Confirmations.
type MockPrompter struct {
	Answers       []string
	Confirmations []bool
	Messages      []string
	pos           int
	confirmPos    int
}

func (m *MockPrompter) next(message string) (string, error) {
	m.Messages = append(m.Messages, message)
	if m.pos >= len(m.Answers) {
		return "", errors.New("EOF")
	}
	answer := m.Answers[m.pos]
	m.pos++
	return answer, nil
}

func (m *MockPrompter) Input(message, help, def string, validate func(string) error) (string, error) {
	answer, err := m.next(message)
	if err != nil {
		return "", err
	}
	if answer == "" {
		answer = def
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (m *MockPrompter) Select(message, help string, options []string, def string) (string, error) {
	answer, err := m.next(message)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	for _, option := range options {
		if option == answer {
			return answer, nil
		}
	}
	return "", errors.New("invalid option: " + answer)
}

func (m *MockPrompter) Confirm(message string, def bool) (bool, error) {
	m.Messages = append(m.Messages, message)
	if m.confirmPos >= len(m.Confirmations) {
		return def, nil
	}
	answer := m.Confirmations[m.confirmPos]
	m.confirmPos++
	return answer, nil
}

// MockTemplateSource is a test double for TemplateSource
type MockTemplateSource struct {
	FS      fs.FS
	Err     error
	Folders []string
}

func (m *MockTemplateSource) Open(folder string) (fs.FS, error) {
	m.Folders = append(m.Folders, folder)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.FS != nil {
		return m.FS, nil
	}
	return template.Embedded(), nil
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:     &MockConfigLoader{Cfg: config.New()},
			PlatformDetector: &MockPlatformDetector{},
			RootChecker:      &MockRootChecker{IsRoot: true},
			Executor:         &executor.MockExecutor{},
			Prompter:         &MockPrompter{},
			TemplateSource:   &MockTemplateSource{},
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithConfigLoader sets a custom config loader
func (b *MockDependenciesBuilder) WithConfigLoader(loader ConfigLoader) *MockDependenciesBuilder {
	b.deps.ConfigLoader = loader
	return b
}

// WithRootAccess sets whether root access is available
func (b *MockDependenciesBuilder) WithRootAccess(isRoot bool) *MockDependenciesBuilder {
	b.deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
	return b
}

// WithExecutor sets the executor used to run scripts
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithPrompter sets the prompter
func (b *MockDependenciesBuilder) WithPrompter(prompter Prompter) *MockDependenciesBuilder {
	b.deps.Prompter = prompter
	return b
}

// WithRelease sets the detected distribution
func (b *MockDependenciesBuilder) WithRelease(release *platform.Release) *MockDependenciesBuilder {
	b.deps.PlatformDetector = &MockPlatformDetector{Release: release}
	return b
}

// WithPlatformError sets an error for platform detection
func (b *MockDependenciesBuilder) WithPlatformError(err error) *MockDependenciesBuilder {
	b.deps.PlatformDetector = &MockPlatformDetector{Err: err}
	return b
}

// WithTemplates sets the recipe filesystem
func (b *MockDependenciesBuilder) WithTemplates(fsys fstest.MapFS) *MockDependenciesBuilder {
	b.deps.TemplateSource = &MockTemplateSource{FS: fsys}
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// TestHelper provides utilities for CLI tests
type TestHelper struct {
	T interface {
		Helper()
		Cleanup(func())
	}
	OldDeps      *Dependencies
	MockConfig   *MockConfigLoader
	MockExecutor *executor.MockExecutor
}

// NewTestHelper creates a new test helper with mock dependencies and resets
// the global flags
func NewTestHelper(t interface {
	Helper()
	Cleanup(func())
}) *TestHelper {
	t.Helper()

	mockConfig := &MockConfigLoader{Cfg: config.New()}
	mockExecutor := &executor.MockExecutor{}

	helper := &TestHelper{
		T:            t,
		OldDeps:      deps,
		MockConfig:   mockConfig,
		MockExecutor: mockExecutor,
	}

	// Set up mock dependencies
	deps = NewMockDeps().
		WithConfigLoader(mockConfig).
		WithExecutor(mockExecutor).
		Build()
	resetFlags()

	// Cleanup function to restore original deps
	t.Cleanup(func() {
		deps = helper.OldDeps
		resetFlags()
	})

	return helper
}

// SetRootAccess sets whether root access is available
func (h *TestHelper) SetRootAccess(isRoot bool) {
	deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
}

// SetPrompter sets the prompter
func (h *TestHelper) SetPrompter(prompter Prompter) {
	deps.Prompter = prompter
}

// SetRelease sets the detected distribution
func (h *TestHelper) SetRelease(release *platform.Release) {
	deps.PlatformDetector = &MockPlatformDetector{Release: release}
}

// GetConfig returns the current mock config
func (h *TestHelper) GetConfig() *config.Config {
	return h.MockConfig.Cfg
}

func resetFlags() {
	jsonOutput = false
	modeFlag = ""
	targetFolder = ""
	configPath = ""
	setValues = nil
}
