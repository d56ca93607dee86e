package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/addonimports/internal/config"
	"github.com/ben-ranford/addonimports/internal/inventory"
	"github.com/ben-ranford/addonimports/internal/report"
	"github.com/ben-ranford/addonimports/internal/symbols"
	"github.com/ben-ranford/addonimports/internal/toolexec"
	"github.com/ben-ranford/addonimports/internal/workspace"
)

var ErrDependencyDirMissing = errors.New("dependency directory not found")

type App struct {
	Formatter report.Formatter
	Logger    *log.Logger
	// Introspector replaces the external tool pipeline when set.
	Introspector symbols.Introspector
}

func New(logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &App{
		Formatter: report.NewFormatter(),
		Logger:    logger,
	}
}

func (a *App) Execute(ctx context.Context, req Request) (string, error) {
	logger := a.logger()
	if req.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	values := req.Config
	if err := values.Validate(); err != nil {
		return "", err
	}

	root, err := workspace.NormalizeRoot(req.RootPath)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if req.ConfigPath != "" {
		logger.Debug("using config file", "path", req.ConfigPath)
	}
	dependencyDir, err := workspace.DependencyDir(root, values.DependencyDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", ErrDependencyDirMissing, err)
		}
		return "", err
	}

	introspector, cache, err := a.buildIntrospector(root, values)
	if err != nil {
		return "", err
	}
	aggregator := &inventory.Aggregator{
		Collector: &inventory.Collector{
			Introspector: introspector,
			Filter: inventory.ModuleFilter{
				Extension:     values.ModuleExtension,
				NestedDir:     values.DependencyDir,
				ExcludeMarker: values.ExcludeMarker,
			},
			Logger: logger,
		},
		Jobs:   values.Jobs,
		Logger: logger,
	}
	records, err := aggregator.Summarize(ctx, dependencyDir)
	if err != nil {
		return "", err
	}

	reportData := report.New(root, records)
	if cache != nil {
		stats := cache.Stats()
		reportData.Cache = &report.CacheUse{
			Dir:    values.CacheDir,
			Hits:   stats.Hits,
			Misses: stats.Misses,
			Writes: stats.Writes,
		}
		logger.Debug("cache summary", "hits", stats.Hits, "misses", stats.Misses, "writes", stats.Writes, "invalidations", stats.Invalidations)
	}
	logger.Debug("inventory complete", "signatures", len(reportData.Imports))
	return a.Formatter.Format(reportData, req.Format)
}

// buildIntrospector assembles the external tool pipeline and wraps it in the
// on-disk cache when one is configured. The returned cache is nil when
// caching is off.
func (a *App) buildIntrospector(root string, values config.Values) (symbols.Introspector, *symbols.Cache, error) {
	inner := a.Introspector
	fingerprint := "injected"
	if inner == nil {
		external := a.newExternal(values)
		inner, fingerprint = external, external.Fingerprint()
	}

	cacheDir := strings.TrimSpace(values.CacheDir)
	if cacheDir == "" {
		return inner, nil, nil
	}
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(root, cacheDir)
	}
	cache, err := symbols.NewCache(inner, fingerprint, symbols.CacheOptions{
		Dir:      cacheDir,
		ReadOnly: values.CacheReadOnly,
	}, a.logger())
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

func (a *App) newExternal(values config.Values) *symbols.External {
	return &symbols.External{
		HostImage: values.HostImage,
		Lister: toolexec.Tool{
			Name:      values.Lister.Name,
			Path:      values.Lister.Path,
			Fallbacks: values.Lister.Fallbacks,
		},
		ListerArgs: values.Lister.Args,
		Demangler: toolexec.Tool{
			Name:      values.Demangler.Name,
			Path:      values.Demangler.Path,
			Fallbacks: values.Demangler.Fallbacks,
		},
		DemanglerArgs: values.Demangler.Args,
		Timeout:       values.Timeout,
		Logger:        a.logger(),
	}
}

func (a *App) logger() *log.Logger {
	if a.Logger == nil {
		a.Logger = log.New(io.Discard)
	}
	return a.Logger
}
