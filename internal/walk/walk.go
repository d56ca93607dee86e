package walk

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"syscall"
)

// Filter decides whether a file, given its path relative to the walked root,
// belongs in the result.
type Filter func(relativePath string) bool

type ErrorKind string

const (
	KindNotFound         ErrorKind = "not-found"
	KindPermissionDenied ErrorKind = "permission-denied"
	KindNotADirectory    ErrorKind = "not-a-directory"
	KindOther            ErrorKind = "other"
)

type FilesystemError struct {
	Op   string
	Path string
	Kind ErrorKind
	Err  error
}

func (e *FilesystemError) Error() string {
	return e.Op + " " + e.Path + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

func NewFilesystemError(op, path string, err error) *FilesystemError {
	return &FilesystemError{Op: op, Path: path, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, syscall.ENOTDIR):
		return KindNotADirectory
	default:
		return KindOther
	}
}

// Files yields, depth-first and in directory-listing order, the relative path
// of every non-directory entry under root accepted by filter. Directories are
// always descended into. Iteration stops after the first error.
func Files(root string, filter Filter) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walkDir(root, "", filter, yield)
	}
}

// Collect drains a sequence produced by Files.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var paths []string
	for rel, err := range seq {
		if err != nil {
			return nil, err
		}
		paths = append(paths, rel)
	}
	return paths, nil
}

func walkDir(root, relativeDir string, filter Filter, yield func(string, error) bool) bool {
	dir := filepath.Join(root, relativeDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		yield("", NewFilesystemError("read directory", dir, err))
		return false
	}
	for _, entry := range entries {
		relativePath := filepath.Join(relativeDir, entry.Name())
		// Stat follows symlinks so linked package directories are walked too.
		info, err := os.Stat(filepath.Join(root, relativePath))
		if err != nil {
			yield("", NewFilesystemError("stat", filepath.Join(root, relativePath), err))
			return false
		}
		if info.IsDir() {
			if !walkDir(root, relativePath, filter, yield) {
				return false
			}
			continue
		}
		if filter != nil && !filter(relativePath) {
			continue
		}
		if !yield(relativePath, nil) {
			return false
		}
	}
	return true
}
