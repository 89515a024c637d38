// Package platform detects the operating system recipes are applied to.
package platform

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// OSReleasePath is where systemd based distributions describe themselves.
const OSReleasePath = "/etc/os-release"

// Release describes a Linux distribution as read from os-release.
type Release struct {
	ID              string // ubuntu
	Name            string // Ubuntu
	VersionID       string // 24.04
	VersionCodename string // noble
	PrettyName      string // Ubuntu 24.04.1 LTS
}

// IsUbuntu reports whether the release is Ubuntu.
func (r *Release) IsUbuntu() bool {
	return r.ID == "ubuntu"
}

// String returns the pretty name, falling back to the id and version.
func (r *Release) String() string {
	if r.PrettyName != "" {
		return r.PrettyName
	}
	return strings.TrimSpace(r.ID + " " + r.VersionID)
}

// Detect reads the release of the current host.
func Detect() (*Release, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("unsupported platform: %s", Platform())
	}
	return DetectFrom(OSReleasePath)
}

// DetectFrom reads the release from an os-release file.
func DetectFrom(path string) (*Release, error) {
	if !pathExists(path) {
		return nil, fmt.Errorf("cannot detect distribution, file not found: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ParseOSRelease(f)
}

// ParseOSRelease parses the KEY=value lines of an os-release file.
func ParseOSRelease(r io.Reader) (*Release, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[key] = unquote(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read os-release: %w", err)
	}

	release := &Release{
		ID:              strings.ToLower(values["ID"]),
		Name:            values["NAME"],
		VersionID:       values["VERSION_ID"],
		VersionCodename: values["VERSION_CODENAME"],
		PrettyName:      values["PRETTY_NAME"],
	}
	if release.ID == "" {
		release.ID = "linux"
	}
	return release, nil
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
