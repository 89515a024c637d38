package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/executor"
	"github.com/roskakori/nubops/internal/platform"
)

func findCheck(checks []CheckResult, status, substr string) bool {
	for _, check := range checks {
		if check.Status == status && strings.Contains(check.Message, substr) {
			return true
		}
	}
	return false
}

func TestCheckSystemRequirements(t *testing.T) {
	tests := []struct {
		name     string
		release  *platform.Release
		isRoot   bool
		lookPath func(string) (string, error)
		execute  func(string, ...string) ([]byte, error)
		validate func(*testing.T, []CheckResult)
	}{
		{
			name:   "all tools on ubuntu as root",
			isRoot: true,
			execute: func(name string, args ...string) ([]byte, error) {
				switch name {
				case "apt-get":
					return []byte("apt 2.7.14 (amd64)\n"), nil
				case "systemctl":
					return []byte("systemd 255 (255.4-1ubuntu8)\n"), nil
				}
				return nil, fmt.Errorf("unexpected command %s", name)
			},
			validate: func(t *testing.T, results []CheckResult) {
				assert.True(t, findCheck(results, "success", "Distribution Ubuntu 24.04.1 LTS"))
				assert.True(t, findCheck(results, "success", "Running as root"))
				assert.True(t, findCheck(results, "success", "sh installed"))
				assert.True(t, findCheck(results, "success", "apt-get installed (2.7.14)"))
				assert.True(t, findCheck(results, "success", "systemctl installed (255)"))
			},
		},
		{
			name:    "other distribution without root",
			release: &platform.Release{ID: "fedora", VersionID: "40", PrettyName: "Fedora Linux 40"},
			validate: func(t *testing.T, results []CheckResult) {
				assert.True(t, findCheck(results, "warning", "Fedora Linux 40 is not Ubuntu"))
				assert.True(t, findCheck(results, "warning", "Not running as root"))
				assert.True(t, findCheck(results, "success", "apt-get installed (unknown)"))
			},
		},
		{
			name:   "missing tools",
			isRoot: true,
			lookPath: func(file string) (string, error) {
				return "", fmt.Errorf("%s: not found", file)
			},
			validate: func(t *testing.T, results []CheckResult) {
				assert.True(t, findCheck(results, "error", "sh not installed"))
				assert.True(t, findCheck(results, "warning", "apt-get not installed (needed by most recipes)"))
				assert.True(t, findCheck(results, "warning", "systemctl not installed"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTestHelper(t)
			h.SetRootAccess(tt.isRoot)
			if tt.release != nil {
				h.SetRelease(tt.release)
			}
			mockExec := &executor.MockExecutor{
				ExecuteFunc:  tt.execute,
				LookPathFunc: tt.lookPath,
			}

			results := checkSystemRequirements(context.Background(), mockExec)
			tt.validate(t, results)
		})
	}
}

func TestCheckSystemRequirementsUnknownDistribution(t *testing.T) {
	NewTestHelper(t)
	deps.PlatformDetector = &MockPlatformDetector{Err: errors.Validation("unsupported platform: darwin")}

	results := checkSystemRequirements(context.Background(), &executor.MockExecutor{})
	assert.True(t, findCheck(results, "warning", "Distribution unknown: unsupported platform: darwin"))
}

func TestCheckConfiguration(t *testing.T) {
	h := NewTestHelper(t)
	t.Setenv(templatesEnv, "")

	configPath = filepath.Join(t.TempDir(), "config.yaml")
	results, fsys := checkConfiguration()
	assert.True(t, findCheck(results, "warning", "Config file not found"))
	assert.True(t, findCheck(results, "success", "Config valid (mode show, target folder /)"))
	assert.True(t, findCheck(results, "success", "Using built-in recipes"))
	assert.NotNil(t, fsys)

	require.NoError(t, os.WriteFile(configPath, []byte("mode: write\n"), 0o644))
	h.MockConfig.LoadErr = errors.Validation("mode is broken")
	results, _ = checkConfiguration()
	assert.True(t, findCheck(results, "success", "Config file exists"))
	assert.True(t, findCheck(results, "error", "failed to load config"))

	t.Setenv(templatesEnv, "/srv/missing")
	deps.TemplateSource = &MockTemplateSource{Err: os.ErrNotExist}
	results, fsys = checkConfiguration()
	assert.True(t, findCheck(results, "error", "Cannot open recipes in /srv/missing"))
	assert.Nil(t, fsys)
}

func TestCheckRecipes(t *testing.T) {
	fsys := fstest.MapFS{
		"clash/recipe.yaml":      {Data: []byte("short: Clash\noptions:\n  - name: mode\n    default: fast\n")},
		"clash/motd":             {Data: []byte("target: /etc/motd\n\n$mode\n")},
		"empty/recipe.yaml":      {Data: []byte("short: Nothing\n")},
		"motd/recipe.yaml":       {Data: []byte("short: Message of the day\n")},
		"motd/motd":              {Data: []byte("target: /etc/motd\n\nhello $user\n")},
		"motd/commands/after.sh": {Data: []byte("echo done\n")},
		"typo/recipe.yaml":       {Data: []byte("short: Typo\narguments:\n  - name: host\n    validate: hostname\n")},
		"typo/motd":              {Data: []byte("target: /etc/motd\n\n$host\n")},
	}

	statuses := checkRecipes(fsys)
	require.Len(t, statuses, 4)
	assert.Equal(t, "clash", statuses[0].Name)
	assert.True(t, findCheck(statuses[0].Checks, "error", "option --mode conflicts with a global flag"))
	assert.Equal(t, "empty", statuses[1].Name)
	assert.True(t, findCheck(statuses[1].Checks, "error", "at least one content or command template"))
	assert.Equal(t, "motd", statuses[2].Name)
	assert.True(t, findCheck(statuses[2].Checks, "success", "1 file(s), 1 script(s)"))
	assert.Equal(t, "typo", statuses[3].Name)
	assert.True(t, findCheck(statuses[3].Checks, "error", `argument host uses unknown validation "hostname"`))

	assert.Empty(t, checkRecipes(nil))
}

func TestCheckRecipesAgreesWithCommands(t *testing.T) {
	fsys := fstest.MapFS{
		"clash/recipe.yaml": {Data: []byte("short: Clash\noptions:\n  - name: json\n")},
		"clash/motd":        {Data: []byte("target: /etc/motd\n\nhello\n")},
		"motd/recipe.yaml":  {Data: []byte("short: Message of the day\n")},
		"motd/motd":         {Data: []byte("target: /etc/motd\n\nhello\n")},
	}
	parent := &cobra.Command{Use: "nubops"}
	require.Error(t, addRecipeCommands(parent, fsys))

	for _, status := range checkRecipes(fsys) {
		cmd, _, err := parent.Find([]string{status.Name})
		registered := err == nil && cmd != parent
		assert.Equal(t, registered, status.Checks[0].Status == "success", status.Name)
	}
}

func TestRunDoctor(t *testing.T) {
	NewTestHelper(t)
	t.Setenv("HOME", t.TempDir())
	buf := captureOutput(t)

	require.NoError(t, runDoctor(nil, nil))

	got := buf.String()
	assert.Contains(t, got, "Checking system requirements...")
	assert.Contains(t, got, "Checking configuration...")
	assert.Contains(t, got, "Checking recipes...")
	assert.Contains(t, got, "nginx-django - 4 file(s), 3 script(s)")
}

func TestRunDoctorJSON(t *testing.T) {
	NewTestHelper(t)
	t.Setenv("HOME", t.TempDir())
	jsonOutput = true
	buf := captureOutput(t)

	require.NoError(t, runDoctor(nil, nil))

	var report DoctorReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, version, report.Version)
	assert.NotEmpty(t, report.SystemRequirements)
	assert.NotEmpty(t, report.Configuration)
	assert.NotEmpty(t, report.Recipes)
}
