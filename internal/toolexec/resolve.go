package toolexec

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var ErrToolNotFound = errors.New("executable not found")

// Tool describes how to locate one external executable.
type Tool struct {
	// Name is looked up on PATH when Path is empty.
	Name string
	// Path, when set, is used as-is and must be executable.
	Path string
	// Fallbacks are fixed locations tried after the PATH search.
	Fallbacks []string
}

// Resolve returns the executable path for tool: explicit path first, then
// PATH, then the fixed fallback locations.
func Resolve(tool Tool) (string, error) {
	if path := strings.TrimSpace(tool.Path); path != "" {
		if ExecutableAvailable(path) {
			return path, nil
		}
		return "", &ExternalToolError{Tool: toolLabel(tool), Err: ErrToolNotFound, Detail: path}
	}
	if name := strings.TrimSpace(tool.Name); name != "" {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	for _, candidate := range tool.Fallbacks {
		if ExecutableAvailable(candidate) {
			return candidate, nil
		}
	}
	return "", &ExternalToolError{Tool: toolLabel(tool), Err: ErrToolNotFound}
}

func ExecutableAvailable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if strings.EqualFold(filepath.Ext(path), ".exe") {
		return true
	}
	return info.Mode()&0o111 != 0
}

func toolLabel(tool Tool) string {
	if name := strings.TrimSpace(tool.Name); name != "" {
		return name
	}
	return filepath.Base(tool.Path)
}
