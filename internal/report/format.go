package report

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type Formatter struct{}

func NewFormatter() Formatter {
	return Formatter{}
}

func (f Formatter) Format(report Report, format Format) (string, error) {
	switch format {
	case FormatCSV:
		return formatCSV(report), nil
	case FormatJSON:
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload) + "\n", nil
	default:
		return "", ErrUnknownFormat
	}
}

// formatCSV writes the fixed-column report. Fields are wrapped in double
// quotes without escaping, so a quote inside a signature yields malformed CSV.
func formatCSV(report Report) string {
	var buffer bytes.Buffer
	buffer.WriteString(csvHeader)
	buffer.WriteString("\n")
	for _, item := range report.Imports {
		buffer.WriteString(strconv.Itoa(item.Count))
		buffer.WriteString(`,"`)
		buffer.WriteString(strings.Join(item.Packages, ", "))
		buffer.WriteString(`","`)
		buffer.WriteString(item.Name)
		buffer.WriteString(`","`)
		buffer.WriteString(item.Signature)
		buffer.WriteString("\"\n")
	}
	return buffer.String()
}
