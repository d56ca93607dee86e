package inventory

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ben-ranford/addonimports/internal/config"
	"github.com/ben-ranford/addonimports/internal/symbols"
)

// defaultFilter is the filter a run with default config uses.
func defaultFilter() ModuleFilter {
	values := config.Defaults()
	return ModuleFilter{
		Extension:     values.ModuleExtension,
		NestedDir:     values.DependencyDir,
		ExcludeMarker: values.ExcludeMarker,
	}
}

// fakeIntrospector answers by module file path relative to its root.
type fakeIntrospector struct {
	root    string
	imports map[string][]string
	fail    map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *fakeIntrospector) ListImports(ctx context.Context, modulePath string) ([]symbols.ImportRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(f.root, modulePath)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)
	f.mu.Lock()
	f.calls = append(f.calls, rel)
	f.mu.Unlock()
	if err := f.fail[rel]; err != nil {
		return nil, err
	}
	signatures, ok := f.imports[rel]
	if !ok {
		return nil, errors.New("unexpected module " + rel)
	}
	records := make([]symbols.ImportRecord, 0, len(signatures))
	for _, signature := range signatures {
		records = append(records, symbols.NewImportRecord(signature))
	}
	return records, nil
}

func (f *fakeIntrospector) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func signaturesOf(records []symbols.ImportRecord) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Signature)
	}
	return out
}

func describe(table []SummaryRecord) string {
	rows := make([]string, 0, len(table))
	for _, record := range table {
		rows = append(rows, record.Signature+"="+strings.Join(record.Packages, "|"))
	}
	return strings.Join(rows, "; ")
}
