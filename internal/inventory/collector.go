package inventory

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/addonimports/internal/symbols"
	"github.com/ben-ranford/addonimports/internal/walk"
)

// ModuleFilter selects native modules inside one package directory.
type ModuleFilter struct {
	Extension string
	// NestedDir excludes a package's own installed dependencies.
	NestedDir string
	// ExcludeMarker drops 32-bit builds.
	ExcludeMarker string
}

func (f ModuleFilter) Match(relativePath string) bool {
	if !strings.HasSuffix(relativePath, f.Extension) {
		return false
	}
	if f.NestedDir != "" && strings.HasPrefix(relativePath, f.NestedDir) {
		return false
	}
	if f.ExcludeMarker != "" && strings.Contains(relativePath, f.ExcludeMarker) {
		return false
	}
	return true
}

type Collector struct {
	Introspector symbols.Introspector
	Filter       ModuleFilter
	Logger       *log.Logger
}

// CollectImports returns the imports of every native module under packageDir,
// first occurrence per signature, in module-then-line order.
func (c *Collector) CollectImports(ctx context.Context, packageDir string) ([]symbols.ImportRecord, error) {
	var imports []symbols.ImportRecord
	seen := make(map[string]struct{})
	for relativePath, err := range walk.Files(packageDir, c.Filter.Match) {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		modulePath := filepath.Join(packageDir, relativePath)
		if c.Logger != nil {
			c.Logger.Debug("inspecting native module", "module", modulePath)
		}
		records, err := c.Introspector.ListImports(ctx, modulePath)
		if err != nil {
			return nil, fmt.Errorf("list imports of %s: %w", modulePath, err)
		}
		for _, record := range records {
			if _, ok := seen[record.Signature]; ok {
				continue
			}
			seen[record.Signature] = struct{}{}
			imports = append(imports, record)
		}
	}
	return imports, nil
}
