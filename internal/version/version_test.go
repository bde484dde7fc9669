package version

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// fakeGit answers `git describe` with shell snippets keyed by the first flag.
func fakeGit(t *testing.T, scripts map[string]string) {
	t.Helper()
	orig := execCommand
	t.Cleanup(func() {
		execCommand = orig
		Reset()
	})

	execCommand = func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		script := "exit 1"
		if len(args) > 1 {
			if s, ok := scripts[args[1]]; ok {
				script = s
			}
		}
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	Reset()
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name       string
		scripts    map[string]string
		wantVer    string
		wantCommit string
	}{
		{
			name:       "Tagged",
			scripts:    map[string]string{"--always": "echo abc123", "--tags": "echo v1.0.0"},
			wantVer:    "1.0.0",
			wantCommit: "abc123",
		},
		{
			name:       "NoTags",
			scripts:    map[string]string{"--always": "echo abc123-dirty"},
			wantVer:    "dev",
			wantCommit: "abc123-dirty",
		},
		{
			name:       "EmptyOutput",
			scripts:    map[string]string{"--always": "true", "--tags": "true"},
			wantVer:    "dev",
			wantCommit: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeGit(t, tt.scripts)

			if got := GetVersion(); got != tt.wantVer {
				t.Errorf("GetVersion() = %q, want %q", got, tt.wantVer)
			}
			if got := GetCommit(); got != tt.wantCommit {
				t.Errorf("GetCommit() = %q, want %q", got, tt.wantCommit)
			}
			if info := Info(); !strings.HasPrefix(info, "quonitor "+tt.wantVer+" (commit: "+tt.wantCommit) {
				t.Errorf("Info() = %q", info)
			}
		})
	}
}

func TestRunGit_Timeout(t *testing.T) {
	fakeGit(t, map[string]string{"--always": "exec sleep 30", "--tags": "exec sleep 30"})

	start := time.Now()
	commit := GetCommit()
	if elapsed := time.Since(start); elapsed > 3*gitTimeout {
		t.Errorf("hung git took %v, want it cut off near %v", elapsed, gitTimeout)
	}
	if commit != "unknown" {
		t.Errorf("GetCommit() = %q, want unknown", commit)
	}
}

func TestLdflagsWin(t *testing.T) {
	fakeGit(t, map[string]string{"--always": "echo from-git", "--tags": "echo v9.9.9"})
	Version, Commit = "2.0.0", "release"

	if got := GetVersion(); got != "2.0.0" {
		t.Errorf("GetVersion() = %q, want ldflags value", got)
	}
	if got := GetCommit(); got != "release" {
		t.Errorf("GetCommit() = %q, want ldflags value", got)
	}
	if GetDate() == "" {
		t.Error("GetDate() returned empty string")
	}
}
