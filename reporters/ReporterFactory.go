package reporters

import (
	"fmt"
)

func CreateReporter(reportFormat string, outputPath string) (Reporter, error) {
	if outputPath == "" {
		outputPath = DefaultOutputPath(reportFormat)
	}

	switch reportFormat {
	case "json":
		return JsonReporter{OutputPath: outputPath}, nil
	case "xlsx":
		return XlsxReporter{OutputPath: outputPath}, nil
	case "sqlite":
		return SqliteReporter{OutputPath: outputPath}, nil
	case "table":
		return TableReporter{OutputPath: outputPath}, nil
	}

	return nil, fmt.Errorf("unknown report format: %s", reportFormat)
}

// DefaultOutputPath names the report artifact when no output path is
// given. The table format renders to stdout by default.
func DefaultOutputPath(reportFormat string) string {
	switch reportFormat {
	case "xlsx":
		return "secsweep_report.xlsx"
	case "sqlite":
		return "secsweep_report.db"
	case "table":
		return ""
	default:
		return "secsweep_report.json"
	}
}
