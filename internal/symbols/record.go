package symbols

import "context"

// ImportRecord is one function a native module imports from the host image.
// Records are identified by Signature; Name is only for display.
type ImportRecord struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// NewImportRecord derives the display name from signature.
func NewImportRecord(signature string) ImportRecord {
	return ImportRecord{Name: ExtractName(signature), Signature: signature}
}

// Introspector lists the host-image functions imported by one native module,
// in import-table order and without deduplication.
type Introspector interface {
	ListImports(ctx context.Context, modulePath string) ([]ImportRecord, error)
}
