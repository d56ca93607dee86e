package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ben-ranford/addonimports/internal/app"
	"github.com/ben-ranford/addonimports/internal/config"
	"github.com/ben-ranford/addonimports/internal/report"
	"github.com/ben-ranford/addonimports/internal/testutil"
)

const (
	unexpectedErrFmt    = "unexpected error: %v"
	rootFlagName        = "--root"
	parseConfigFileName = ".addonimports.yml"
)

func mustParseArgs(t *testing.T, args []string) app.Request {
	t.Helper()

	req, err := ParseArgs(args)
	if err != nil {
		t.Fatalf(unexpectedErrFmt, err)
	}
	return req
}

func expectParseArgsError(t *testing.T, args []string, wantMsg string) error {
	t.Helper()

	_, err := ParseArgs(args)
	if err == nil {
		t.Fatal(wantMsg)
	}
	return err
}

func TestParseArgsDefault(t *testing.T) {
	req := mustParseArgs(t, []string{rootFlagName, t.TempDir()})
	if req.Format != report.FormatCSV {
		t.Fatalf("expected csv default, got %q", req.Format)
	}
	if req.Config.DependencyDir != config.DefaultDependencyDir || req.Config.Jobs != 1 || req.Config.Timeout != 0 {
		t.Fatalf("expected default config values, got %+v", req.Config)
	}
	if req.Verbose || req.ConfigPath != "" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestParseArgsHelp(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}, {"help"}, {rootFlagName, ".", "-help"}} {
		if _, err := ParseArgs(args); !errors.Is(err, ErrHelpRequested) {
			t.Fatalf("expected help for %v, got %v", args, err)
		}
	}
}

func TestParseArgsFlags(t *testing.T) {
	root := t.TempDir()
	req := mustParseArgs(t, []string{
		rootFlagName, root,
		"--format", "json",
		"--jobs", "4",
		"--timeout", "45s",
		"--cache-dir", " .cache ",
		"--cache-readonly",
		"--lister", "/opt/dumpbin",
		"--demangler", "/opt/undname",
		"--host", "electron.exe",
		"--verbose",
	})
	checks := []struct {
		name string
		ok   bool
	}{
		{"root", req.RootPath == root},
		{"format", req.Format == report.FormatJSON},
		{"jobs", req.Config.Jobs == 4},
		{"timeout", req.Config.Timeout == 45*time.Second},
		{"cache dir", req.Config.CacheDir == ".cache"},
		{"cache read-only", req.Config.CacheReadOnly},
		{"lister", req.Config.Lister.Path == "/opt/dumpbin" && req.Config.Lister.Name == config.DefaultListerName},
		{"demangler", req.Config.Demangler.Path == "/opt/undname"},
		{"host", req.Config.HostImage == "electron.exe"},
		{"verbose", req.Verbose},
	}
	for _, check := range checks {
		if !check.ok {
			t.Fatalf("unexpected %s in request %+v", check.name, req)
		}
	}
}

func TestParseArgsConfigFileAndFlagPrecedence(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, parseConfigFileName), "jobs: 3\nhost_image: node64.exe\nexclude_marker: x86\n")

	req := mustParseArgs(t, []string{rootFlagName, root, "--jobs", "6"})
	if req.Config.Jobs != 6 {
		t.Fatalf("expected flag to override config jobs, got %d", req.Config.Jobs)
	}
	if req.Config.HostImage != "node64.exe" || req.Config.ExcludeMarker != "x86" {
		t.Fatalf("expected config values to apply, got %+v", req.Config)
	}
	if !strings.HasSuffix(req.ConfigPath, parseConfigFileName) {
		t.Fatalf("expected config path to be recorded, got %q", req.ConfigPath)
	}
}

func TestParseArgsExplicitConfig(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "tools.toml"), "[demangler]\npath = \"/usr/bin/llvm-undname\"\n")

	req := mustParseArgs(t, []string{rootFlagName, root, "--config", "tools.toml"})
	if req.Config.Demangler.Path != "/usr/bin/llvm-undname" {
		t.Fatalf("expected explicit config to apply, got %+v", req.Config.Demangler)
	}
}

func TestParseArgsErrors(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"--bogus"}, want: "flag provided but not defined"},
		{name: "positional", args: []string{rootFlagName, root, "extra"}, want: "unexpected arguments"},
		{name: "zero jobs", args: []string{rootFlagName, root, "--jobs", "0"}, want: "--jobs must be >= 1"},
		{name: "negative timeout", args: []string{rootFlagName, root, "--timeout", "-1s"}, want: "--timeout must be >= 0"},
		{name: "bad timeout", args: []string{rootFlagName, root, "--timeout", "soon"}, want: "invalid value"},
		{name: "unknown format", args: []string{rootFlagName, root, "--format", "xml"}, want: "unknown format"},
		{name: "empty host", args: []string{rootFlagName, root, "--host", " "}, want: "host_image"},
		{name: "missing config", args: []string{rootFlagName, root, "--config", "nope.yml"}, want: "config file not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := expectParseArgsError(t, tc.args, "expected parse error")
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseArgsInvalidConfigFile(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, parseConfigFileName), "jobs: many\n")
	err := expectParseArgsError(t, []string{rootFlagName, root}, "expected config parse error")
	if !strings.Contains(err.Error(), "invalid YAML config") {
		t.Fatalf("unexpected error %v", err)
	}
}
