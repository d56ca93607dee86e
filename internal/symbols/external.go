package symbols

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/addonimports/internal/toolexec"
)

const (
	PlaceholderHost   = "{host}"
	PlaceholderModule = "{module}"
	PlaceholderSymbol = "{symbol}"
)

// External lists imports by running an import lister against each module and
// a demangler against each decorated name it reports. Both tools are resolved
// on first use, so a tree without native modules never needs them installed.
type External struct {
	HostImage     string
	Lister        toolexec.Tool
	ListerArgs    []string
	Demangler     toolexec.Tool
	DemanglerArgs []string
	Timeout       time.Duration
	Logger        *log.Logger

	resolveOnce   sync.Once
	listerPath    string
	demanglerPath string
	resolveErr    error
}

func (e *External) ListImports(ctx context.Context, modulePath string) ([]ImportRecord, error) {
	if err := e.resolve(); err != nil {
		return nil, err
	}
	listing, err := toolexec.Run(ctx, toolexec.Invocation{
		Tool:    toolName(e.listerPath),
		Path:    e.listerPath,
		Args:    expandArgs(e.ListerArgs, e.HostImage, modulePath, ""),
		Target:  modulePath,
		Timeout: e.Timeout,
	})
	if err != nil {
		return nil, err
	}

	decorated := ParseImportListing(listing)
	records := make([]ImportRecord, 0, len(decorated))
	for _, symbol := range decorated {
		signature, err := e.demangle(ctx, modulePath, symbol)
		if err != nil {
			return nil, err
		}
		records = append(records, NewImportRecord(signature))
	}
	return records, nil
}

func (e *External) resolve() error {
	e.resolveOnce.Do(func() {
		if e.listerPath, e.resolveErr = toolexec.Resolve(e.Lister); e.resolveErr != nil {
			return
		}
		if e.demanglerPath, e.resolveErr = toolexec.Resolve(e.Demangler); e.resolveErr != nil {
			return
		}
		if e.Logger != nil {
			e.Logger.Debug("resolved tools", "lister", e.listerPath, "demangler", e.demanglerPath)
		}
	})
	return e.resolveErr
}

func (e *External) demangle(ctx context.Context, modulePath, symbol string) (string, error) {
	output, err := toolexec.Run(ctx, toolexec.Invocation{
		Tool:    toolName(e.demanglerPath),
		Path:    e.demanglerPath,
		Args:    expandArgs(e.DemanglerArgs, e.HostImage, modulePath, symbol),
		Target:  modulePath,
		Detail:  symbol,
		Timeout: e.Timeout,
	})
	if err != nil {
		return "", err
	}
	signature, ok := ParseDemangled(output)
	if !ok {
		if e.Logger != nil {
			e.Logger.Warn("demangler output not recognised; using decorated name", "symbol", symbol, "module", modulePath)
		}
		return symbol, nil
	}
	return signature, nil
}

// Fingerprint identifies the tool configuration for cache keys without
// resolving the tools.
func (e *External) Fingerprint() string {
	parts := []string{e.HostImage, toolFingerprint(e.Lister), strings.Join(e.ListerArgs, "\x1f"), toolFingerprint(e.Demangler), strings.Join(e.DemanglerArgs, "\x1f")}
	return strings.Join(parts, "\x00")
}

func toolFingerprint(tool toolexec.Tool) string {
	return tool.Name + "\x1e" + tool.Path + "\x1e" + strings.Join(tool.Fallbacks, "\x1f")
}

func expandArgs(templates []string, host, module, symbol string) []string {
	replacer := strings.NewReplacer(PlaceholderHost, host, PlaceholderModule, module, PlaceholderSymbol, symbol)
	args := make([]string, 0, len(templates))
	for _, template := range templates {
		args = append(args, replacer.Replace(template))
	}
	return args
}

func toolName(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(strings.TrimSuffix(base, ".exe"), ".EXE")
}
