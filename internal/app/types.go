package app

import (
	"github.com/ben-ranford/addonimports/internal/config"
	"github.com/ben-ranford/addonimports/internal/report"
)

type Request struct {
	RootPath string
	Format   report.Format
	Verbose  bool
	// ConfigPath is the config file the values were loaded from, if any.
	ConfigPath string
	Config     config.Values
}

func DefaultRequest() Request {
	return Request{
		RootPath: ".",
		Format:   report.FormatCSV,
		Config:   config.Defaults(),
	}
}
