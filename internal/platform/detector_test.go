package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const ubuntuRelease = `PRETTY_NAME="Ubuntu 24.04.1 LTS"
NAME="Ubuntu"
VERSION_ID="24.04"
VERSION="24.04.1 LTS (Noble Numbat)"
VERSION_CODENAME=noble
ID=ubuntu
ID_LIKE=debian
HOME_URL="https://www.ubuntu.com/"
`

func TestParseOSRelease(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantID     string
		wantVer    string
		wantUbuntu bool
		wantString string
	}{
		{"ubuntu", ubuntuRelease, "ubuntu", "24.04", true, "Ubuntu 24.04.1 LTS"},
		{"debian", "ID=debian\nVERSION_ID='12'\n", "debian", "12", false, "debian 12"},
		{"comments and blanks", "# generated\n\nID=Ubuntu\nbroken line\n", "ubuntu", "", true, "ubuntu"},
		{"empty", "", "linux", "", false, "linux"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release, err := ParseOSRelease(strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if release.ID != tt.wantID {
				t.Errorf("expected id %s, got %s", tt.wantID, release.ID)
			}
			if release.VersionID != tt.wantVer {
				t.Errorf("expected version %s, got %s", tt.wantVer, release.VersionID)
			}
			if release.IsUbuntu() != tt.wantUbuntu {
				t.Errorf("expected IsUbuntu=%v", tt.wantUbuntu)
			}
			if release.String() != tt.wantString {
				t.Errorf("expected %q, got %q", tt.wantString, release.String())
			}
		})
	}
}

func TestDetectFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	if err := os.WriteFile(path, []byte(ubuntuRelease), 0644); err != nil {
		t.Fatalf("failed to write os-release: %v", err)
	}

	release, err := DetectFrom(path)
	if err != nil {
		t.Fatalf("DetectFrom failed: %v", err)
	}
	if release.VersionCodename != "noble" {
		t.Errorf("expected codename noble, got %s", release.VersionCodename)
	}

	_, err = DetectFrom(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for missing os-release")
	}
}

func TestDetect(t *testing.T) {
	release, err := Detect()

	switch runtime.GOOS {
	case "linux":
		if err != nil {
			t.Logf("Detection failed (may be expected in minimal containers): %v", err)
			return
		}
		if release.ID == "" {
			t.Error("release id is empty")
		}
	default:
		if err == nil {
			t.Errorf("expected error on unsupported platform %s, but got nil", runtime.GOOS)
		}
	}
}

func TestPathExists(t *testing.T) {
	// Root path should always exist
	if !pathExists("/") {
		t.Error("root path should exist")
	}

	// Non-existent path should return false
	if pathExists("/this/path/should/definitely/not/exist/anywhere") {
		t.Error("non-existent path should return false")
	}
}

func TestPlatform(t *testing.T) {
	p := Platform()
	if p == "" {
		t.Error("Platform() should return non-empty string")
	}

	// Should contain GOOS and GOARCH
	expected := runtime.GOOS + "/" + runtime.GOARCH
	if p != expected {
		t.Errorf("expected %s, got %s", expected, p)
	}
}
