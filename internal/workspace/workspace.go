package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/ben-ranford/addonimports/internal/walk"
)

func NormalizeRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	return filepath.Abs(path)
}

// DependencyDir returns root/name after checking it is a readable directory.
func DependencyDir(root, name string) (string, error) {
	dir := filepath.Join(root, name)
	info, err := os.Stat(dir)
	if err != nil {
		return "", walk.NewFilesystemError("open dependency directory", dir, err)
	}
	if !info.IsDir() {
		return "", walk.NewFilesystemError("open dependency directory", dir, syscall.ENOTDIR)
	}
	return dir, nil
}

// ListPackages returns the names of the immediate child directories of dir in
// listing order. Loose files such as lockfiles are not packages.
func ListPackages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, walk.NewFilesystemError("list packages", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, walk.NewFilesystemError("stat package", filepath.Join(dir, entry.Name()), err)
		}
		if info.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// PackageDir joins a package name onto the dependency directory.
func PackageDir(dependencyDir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid package name %q", name)
	}
	return filepath.Join(dependencyDir, name), nil
}
