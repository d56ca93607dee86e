package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	readConfigFileErrFmt = "read config file %s: %w"
	parseConfigErrFmt    = "parse config file %s: %w"
)

var configFileNames = []string{".addonimports.yml", ".addonimports.yaml", ".addonimports.toml", "addonimports.json"}

// Load discovers and parses the config file for rootPath. An explicit path is
// resolved against rootPath when relative. With no file found, Load returns
// empty overrides and an empty path.
func Load(rootPath, explicitPath string) (Overrides, string, error) {
	rootAbs, err := filepath.Abs(rootPath)
	if err != nil {
		return Overrides{}, "", fmt.Errorf("resolve root path: %w", err)
	}
	explicitPath = strings.TrimSpace(explicitPath)

	configPath, found, err := resolveConfigPath(rootAbs, explicitPath)
	if err != nil {
		return Overrides{}, "", err
	}
	if !found {
		return Overrides{}, "", nil
	}

	data, err := readConfigFile(rootAbs, configPath, explicitPath != "")
	if err != nil {
		return Overrides{}, "", fmt.Errorf(readConfigFileErrFmt, configPath, err)
	}
	raw, err := parseConfig(configPath, data)
	if err != nil {
		return Overrides{}, "", fmt.Errorf(parseConfigErrFmt, configPath, err)
	}
	overrides, err := raw.toOverrides()
	if err != nil {
		return Overrides{}, "", fmt.Errorf(parseConfigErrFmt, configPath, err)
	}
	resolved := overrides.Apply(Defaults())
	if err := resolved.Validate(); err != nil {
		return Overrides{}, "", fmt.Errorf(parseConfigErrFmt, configPath, err)
	}
	return overrides, configPath, nil
}

func resolveConfigPath(rootPath, explicitPath string) (string, bool, error) {
	if explicitPath != "" {
		candidate := explicitPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(rootPath, candidate)
		}
		candidate = filepath.Clean(candidate)
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file not found: %s", candidate)
			}
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
		return candidate, true, nil
	}

	for _, name := range configFileNames {
		candidate := filepath.Join(rootPath, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
	}
	return "", false, nil
}

// readConfigFile opens discovered configs through an os.Root confined to the
// project root; explicit paths outside the root are read directly.
func readConfigFile(rootPath, path string, explicitProvided bool) ([]byte, error) {
	rel, err := filepath.Rel(rootPath, path)
	underRoot := err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
	if !underRoot {
		if !explicitProvided {
			return nil, fmt.Errorf("path escapes root: %s", path)
		}
		return os.ReadFile(path)
	}

	root, err := os.OpenRoot(rootPath)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(filepath.Clean(rel))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func parseConfig(path string, data []byte) (rawConfig, error) {
	var cfg rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid JSON config: %w", err)
		}
		if decoder.More() {
			return rawConfig{}, fmt.Errorf("invalid JSON config: multiple JSON values")
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid TOML config: %w", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
			return rawConfig{}, fmt.Errorf("invalid YAML config: %w", err)
		}
	}
	return cfg, nil
}

type rawConfig struct {
	DependencyDir   *string  `yaml:"dependency_dir" toml:"dependency_dir" json:"dependency_dir"`
	ModuleExtension *string  `yaml:"module_extension" toml:"module_extension" json:"module_extension"`
	ExcludeMarker   *string  `yaml:"exclude_marker" toml:"exclude_marker" json:"exclude_marker"`
	HostImage       *string  `yaml:"host_image" toml:"host_image" json:"host_image"`
	Jobs            *int     `yaml:"jobs" toml:"jobs" json:"jobs"`
	Timeout         *string  `yaml:"timeout" toml:"timeout" json:"timeout"`
	Lister          rawTool  `yaml:"lister" toml:"lister" json:"lister"`
	Demangler       rawTool  `yaml:"demangler" toml:"demangler" json:"demangler"`
	Cache           rawCache `yaml:"cache" toml:"cache" json:"cache"`
}

type rawTool struct {
	Name *string  `yaml:"name" toml:"name" json:"name"`
	Path *string  `yaml:"path" toml:"path" json:"path"`
	Args []string `yaml:"args" toml:"args" json:"args"`
}

type rawCache struct {
	Dir      *string `yaml:"dir" toml:"dir" json:"dir"`
	ReadOnly *bool   `yaml:"read_only" toml:"read_only" json:"read_only"`
}

func (c *rawConfig) toOverrides() (Overrides, error) {
	overrides := Overrides{
		DependencyDir:   c.DependencyDir,
		ModuleExtension: c.ModuleExtension,
		ExcludeMarker:   c.ExcludeMarker,
		HostImage:       c.HostImage,
		Jobs:            c.Jobs,
		ListerName:      c.Lister.Name,
		ListerPath:      c.Lister.Path,
		ListerArgs:      c.Lister.Args,
		DemanglerName:   c.Demangler.Name,
		DemanglerPath:   c.Demangler.Path,
		DemanglerArgs:   c.Demangler.Args,
		CacheDir:        c.Cache.Dir,
		CacheReadOnly:   c.Cache.ReadOnly,
	}
	if c.Timeout != nil {
		timeout, err := time.ParseDuration(strings.TrimSpace(*c.Timeout))
		if err != nil {
			return Overrides{}, fmt.Errorf("invalid timeout %q: %w", *c.Timeout, err)
		}
		overrides.Timeout = &timeout
	}
	return overrides, nil
}
