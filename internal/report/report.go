package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ben-ranford/addonimports/internal/inventory"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

const SchemaVersion = "0.1.0"

const csvHeader = "Pkg count,Package names,Imported name,Imported signature"

var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

type Report struct {
	SchemaVersion string    `json:"schemaVersion"`
	Root          string    `json:"root"`
	Imports       []Import  `json:"imports"`
	Cache         *CacheUse `json:"cache,omitempty"`
}

type Import struct {
	Count     int      `json:"count"`
	Packages  []string `json:"packages"`
	Name      string   `json:"name"`
	Signature string   `json:"signature"`
}

type CacheUse struct {
	Dir    string `json:"dir"`
	Hits   int    `json:"hits"`
	Misses int    `json:"misses"`
	Writes int    `json:"writes"`
}

// SortByPackageCount returns a copy of records, most widely imported first.
// Records with equal counts keep their relative order.
func SortByPackageCount(records []inventory.SummaryRecord) []inventory.SummaryRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b inventory.SummaryRecord) int {
		return len(b.Packages) - len(a.Packages)
	})
	return sorted
}

// New builds a sorted report from an aggregated table.
func New(root string, records []inventory.SummaryRecord) Report {
	sorted := SortByPackageCount(records)
	imports := make([]Import, 0, len(sorted))
	for _, record := range sorted {
		imports = append(imports, Import{
			Count:     len(record.Packages),
			Packages:  slices.Clone(record.Packages),
			Name:      record.Name,
			Signature: record.Signature,
		})
	}
	return Report{SchemaVersion: SchemaVersion, Root: root, Imports: imports}
}
