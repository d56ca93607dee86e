package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	DefaultDependencyDir   = "node_modules"
	DefaultModuleExtension = ".node"
	DefaultExcludeMarker   = "ia32"
	DefaultHostImage       = "node.exe"
	DefaultJobs            = 1
	DefaultListerName      = "dumpbin"
	DefaultDemanglerName   = "undname"
)

const visualStudioBinDir = `C:\Program Files (x86)\Microsoft Visual Studio 14.0\VC\bin\`

var (
	defaultListerArgs         = []string{"/imports:{host}", "{module}"}
	defaultDemanglerArgs      = []string{"{symbol}"}
	defaultListerFallbacks    = []string{visualStudioBinDir + "dumpbin.exe"}
	defaultDemanglerFallbacks = []string{visualStudioBinDir + "undname.exe"}
)

type Tool struct {
	Name      string
	Path      string
	Args      []string
	Fallbacks []string
}

type Values struct {
	DependencyDir   string
	ModuleExtension string
	ExcludeMarker   string
	HostImage       string
	Jobs            int
	Timeout         time.Duration
	Lister          Tool
	Demangler       Tool
	CacheDir        string
	CacheReadOnly   bool
}

type Overrides struct {
	DependencyDir   *string
	ModuleExtension *string
	ExcludeMarker   *string
	HostImage       *string
	Jobs            *int
	Timeout         *time.Duration
	ListerName      *string
	ListerPath      *string
	ListerArgs      []string
	DemanglerName   *string
	DemanglerPath   *string
	DemanglerArgs   []string
	CacheDir        *string
	CacheReadOnly   *bool
}

func Defaults() Values {
	return Values{
		DependencyDir:   DefaultDependencyDir,
		ModuleExtension: DefaultModuleExtension,
		ExcludeMarker:   DefaultExcludeMarker,
		HostImage:       DefaultHostImage,
		Jobs:            DefaultJobs,
		Lister: Tool{
			Name:      DefaultListerName,
			Args:      slices.Clone(defaultListerArgs),
			Fallbacks: slices.Clone(defaultListerFallbacks),
		},
		Demangler: Tool{
			Name:      DefaultDemanglerName,
			Args:      slices.Clone(defaultDemanglerArgs),
			Fallbacks: slices.Clone(defaultDemanglerFallbacks),
		},
	}
}

func (v *Values) Validate() error {
	if err := validateName("dependency_dir", v.DependencyDir); err != nil {
		return err
	}
	if strings.TrimSpace(v.ModuleExtension) == "" {
		return fmt.Errorf("invalid module_extension: must not be empty")
	}
	if strings.TrimSpace(v.HostImage) == "" {
		return fmt.Errorf("invalid host_image: must not be empty")
	}
	if v.Jobs < 1 {
		return fmt.Errorf("invalid jobs: %d (must be >= 1)", v.Jobs)
	}
	if v.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s (must be >= 0)", v.Timeout)
	}
	if err := validateTool("lister", v.Lister, "{module}"); err != nil {
		return err
	}
	if err := validateTool("demangler", v.Demangler, "{symbol}"); err != nil {
		return err
	}
	return nil
}

func (o *Overrides) Apply(base Values) Values {
	resolved := base
	resolved.Lister.Args = slices.Clone(base.Lister.Args)
	resolved.Demangler.Args = slices.Clone(base.Demangler.Args)
	applyString(&resolved.DependencyDir, o.DependencyDir)
	applyString(&resolved.ModuleExtension, o.ModuleExtension)
	applyString(&resolved.ExcludeMarker, o.ExcludeMarker)
	applyString(&resolved.HostImage, o.HostImage)
	if o.Jobs != nil {
		resolved.Jobs = *o.Jobs
	}
	if o.Timeout != nil {
		resolved.Timeout = *o.Timeout
	}
	applyString(&resolved.Lister.Name, o.ListerName)
	applyString(&resolved.Lister.Path, o.ListerPath)
	if o.ListerArgs != nil {
		resolved.Lister.Args = slices.Clone(o.ListerArgs)
	}
	applyString(&resolved.Demangler.Name, o.DemanglerName)
	applyString(&resolved.Demangler.Path, o.DemanglerPath)
	if o.DemanglerArgs != nil {
		resolved.Demangler.Args = slices.Clone(o.DemanglerArgs)
	}
	applyString(&resolved.CacheDir, o.CacheDir)
	if o.CacheReadOnly != nil {
		resolved.CacheReadOnly = *o.CacheReadOnly
	}
	return resolved
}

func applyString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

func validateName(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("invalid %s: must not be empty", field)
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("invalid %s: %q must be a single directory name", field, value)
	}
	return nil
}

func validateTool(field string, tool Tool, requiredPlaceholder string) error {
	if strings.TrimSpace(tool.Name) == "" && strings.TrimSpace(tool.Path) == "" {
		return fmt.Errorf("invalid %s: name or path is required", field)
	}
	for _, arg := range tool.Args {
		if strings.Contains(arg, requiredPlaceholder) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s args: %s placeholder is required", field, requiredPlaceholder)
}
