package main

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadBuildDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info *debug.BuildInfo
		want buildDetails
	}{
		{
			name: "no build info",
			info: nil,
			want: buildDetails{Version: "(devel)", Commit: "unknown", Date: "unknown", GoVersion: "unknown"},
		},
		{
			name: "module build with vcs settings",
			info: &debug.BuildInfo{
				GoVersion: "go1.25.0",
				Main:      debug.Module{Version: "v1.2.3"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: buildDetails{
				Version:   "v1.2.3",
				Commit:    "0123456",
				Date:      "2026-03-01T12:00:00Z",
				GoVersion: "go1.25.0",
				Modified:  true,
			},
		},
		{
			name: "clean tree with short revision",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc"},
					{Key: "vcs.modified", Value: "false"},
				},
			},
			want: buildDetails{Version: "(devel)", Commit: "abc", Date: "unknown", GoVersion: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, readBuildDetails(tt.info)); diff != "" {
				t.Errorf("readBuildDetails() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if v := getVersion(); v == "" {
		t.Error("getVersion() returned empty string")
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()

	d := buildDetails{Version: "v1.2.3", Commit: "0123456", Date: "2026-03-01", GoVersion: "go1.25.0", Modified: true}

	t.Run("full", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		printVersion(cmd, d, false)

		want := "reviewscan version v1.2.3\n" +
			"  commit: 0123456 (modified)\n" +
			"  built:  2026-03-01\n" +
			"  go:     go1.25.0\n"
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("printVersion() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("short", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		printVersion(cmd, d, true)

		if got := buf.String(); got != "v1.2.3\n" {
			t.Errorf("printVersion(short) = %q", got)
		}
	})
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	t.Run("command outputs version info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"reviewscan version", "commit:", "built:", "go:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})

	t.Run("rejects arguments", func(t *testing.T) {
		t.Parallel()

		cmd := NewVersionCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"extra"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for extra argument")
		}
	})
}
