package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ben-ranford/addonimports/internal/app"
	"github.com/ben-ranford/addonimports/internal/config"
	"github.com/ben-ranford/addonimports/internal/report"
)

var ErrHelpRequested = errors.New("help requested")

func ParseArgs(args []string) (app.Request, error) {
	req := app.DefaultRequest()
	if len(args) > 0 && isHelpArg(args[0]) {
		return req, ErrHelpRequested
	}

	fs := flag.NewFlagSet("addonimports", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	rootPath := fs.String("root", req.RootPath, "project root containing the dependency directory")
	configPath := fs.String("config", "", "config file path")
	formatFlag := fs.String("format", string(req.Format), "output format")
	jobs := fs.Int("jobs", req.Config.Jobs, "packages inventoried concurrently")
	timeout := fs.Duration("timeout", req.Config.Timeout, "per-invocation tool timeout")
	cacheDir := fs.String("cache-dir", "", "introspection cache directory")
	cacheReadOnly := fs.Bool("cache-readonly", false, "read the cache without writing")
	listerPath := fs.String("lister", "", "import lister executable")
	demanglerPath := fs.String("demangler", "", "demangler executable")
	hostImage := fs.String("host", req.Config.HostImage, "host image whose imports are listed")
	verbose := fs.Bool("verbose", false, "debug logging on stderr")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return req, ErrHelpRequested
		}
		return req, err
	}
	if fs.NArg() > 0 {
		return req, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if *jobs < 1 {
		return req, fmt.Errorf("--jobs must be >= 1")
	}
	if *timeout < 0 {
		return req, fmt.Errorf("--timeout must be >= 0")
	}

	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		return req, err
	}

	root := strings.TrimSpace(*rootPath)
	configOverrides, resolvedConfigPath, err := config.Load(root, strings.TrimSpace(*configPath))
	if err != nil {
		return req, err
	}
	resolved := configOverrides.Apply(config.Defaults())

	visited := visitedFlags(fs)
	cliOverrides := config.Overrides{}
	if visited["jobs"] {
		cliOverrides.Jobs = jobs
	}
	if visited["timeout"] {
		cliOverrides.Timeout = timeout
	}
	if visited["host"] {
		cliOverrides.HostImage = trimmed(hostImage)
	}
	if visited["lister"] {
		cliOverrides.ListerPath = trimmed(listerPath)
	}
	if visited["demangler"] {
		cliOverrides.DemanglerPath = trimmed(demanglerPath)
	}
	if visited["cache-dir"] {
		cliOverrides.CacheDir = trimmed(cacheDir)
	}
	if visited["cache-readonly"] {
		cliOverrides.CacheReadOnly = cacheReadOnly
	}

	resolved = cliOverrides.Apply(resolved)
	if err := resolved.Validate(); err != nil {
		return req, err
	}

	req.RootPath = root
	req.Format = format
	req.Verbose = *verbose
	req.ConfigPath = resolvedConfigPath
	req.Config = resolved
	return req, nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func trimmed(value *string) *string {
	result := strings.TrimSpace(*value)
	return &result
}

func visitedFlags(fs *flag.FlagSet) map[string]bool {
	visited := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})
	return visited
}
