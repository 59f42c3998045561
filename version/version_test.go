package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

type buildVars struct {
	version, commit, branch, buildTime, goVersion string
}

// setBuildVars overrides the -ldflags variables for one test.
func setBuildVars(t *testing.T, v buildVars) {
	t.Helper()
	saved := buildVars{Version, GitCommit, GitBranch, BuildTime, GoVersion}
	Version, GitCommit, GitBranch, BuildTime, GoVersion = v.version, v.commit, v.branch, v.buildTime, v.goVersion
	t.Cleanup(func() {
		Version, GitCommit, GitBranch, BuildTime, GoVersion = saved.version, saved.commit, saved.branch, saved.buildTime, saved.goVersion
	})
}

func TestGetVersionInfo(t *testing.T) {
	t.Run("stamped release", func(t *testing.T) {
		setBuildVars(t, buildVars{"1.0.0", "abc1234", "main", "2024-01-15T10:30:00Z", "go1.22.0"})
		info := GetVersionInfo()
		if !info.IsRelease || info.GitCommit != "abc1234" || info.GoVersion != "go1.22.0" {
			t.Errorf("unexpected info %+v", info)
		}
		if info.BuildDate.Year() != 2024 {
			t.Errorf("build year = %d", info.BuildDate.Year())
		}
	})

	t.Run("unstamped dev build", func(t *testing.T) {
		setBuildVars(t, buildVars{version: "dev"})
		info := GetVersionInfo()
		if info.Version != "dev" || info.IsRelease {
			t.Errorf("unexpected info %+v", info)
		}
		if info.BuildDate.IsZero() {
			t.Error("BuildDate should fall back to a non-zero time")
		}
	})

	t.Run("dirty suffix is not a release", func(t *testing.T) {
		setBuildVars(t, buildVars{version: "1.0.0-dirty"})
		if GetVersionInfo().IsRelease {
			t.Error("dirty version should not be a release")
		}
	})
}

func TestVersionStrings(t *testing.T) {
	tests := []struct {
		name      string
		vars      buildVars
		short     string
		fullHas   []string
		fullLacks []string
	}{
		{
			name:      "commit on main",
			vars:      buildVars{"1.0.0", "abc1234", "main", "2024-01-15T10:30:00Z", "go1.22"},
			short:     "1.0.0-abc1234",
			fullHas:   []string{"1.0.0-abc1234", "(built 2024-01-15T10:30:00Z)"},
			fullLacks: []string{"main"},
		},
		{
			name:    "feature branch",
			vars:    buildVars{"1.0.0", "abc1234", "feature/x", "2024-01-15T10:30:00Z", "go1.22"},
			short:   "1.0.0-abc1234",
			fullHas: []string{"feature/x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuildVars(t, tt.vars)
			if got := GetShortVersion(); got != tt.short {
				t.Errorf("GetShortVersion() = %q, want %q", got, tt.short)
			}
			full := GetFullVersion()
			for _, s := range tt.fullHas {
				if !strings.Contains(full, s) {
					t.Errorf("GetFullVersion() = %q, missing %q", full, s)
				}
			}
			for _, s := range tt.fullLacks {
				if strings.Contains(full, s) {
					t.Errorf("GetFullVersion() = %q, should not contain %q", full, s)
				}
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	setBuildVars(t, buildVars{version: "1.2.3"})
	if got := UserAgent(); got != "apifykit/1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestApplyBuildInfo(t *testing.T) {
	stamps := &debug.BuildInfo{
		GoVersion: "go1.25.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		},
	}

	info := &Info{Version: "dev"}
	applyBuildInfo(info, stamps)
	if info.GitCommit != "0123456" || !info.IsDirty {
		t.Errorf("unexpected vcs fields %+v", info)
	}
	if info.GoVersion != "go1.25.0" || info.BuildTime != "2026-03-01T12:00:00Z" {
		t.Errorf("unexpected build fields %+v", info)
	}

	stamped := &Info{GitCommit: "abc1234", BuildTime: "2024-01-15T10:30:00Z", GoVersion: "go1.22"}
	applyBuildInfo(stamped, stamps)
	if stamped.GitCommit != "abc1234" || stamped.BuildTime != "2024-01-15T10:30:00Z" || stamped.GoVersion != "go1.22" {
		t.Errorf("ldflags values overwritten: %+v", stamped)
	}
}
