package reporters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reaandrew/secsweep/core"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const runSheetName = "Run"

// XlsxReporter writes one workbook per run: a Run sheet with the header
// and invocations, plus one sheet per finding type.
type XlsxReporter struct {
	OutputPath string
}

func (x XlsxReporter) Report(run *core.Run, repository core.FindingRepository) error {
	f := excelize.NewFile()

	if err := writeRunSheet(f, run); err != nil {
		return err
	}

	// Collect findings by normalized type along with the union of their
	// property keys, one sheet per type.
	findingsByType := make(map[string][]core.Finding)
	propertyKeysByType := make(map[string]map[string]struct{})

	standardFields := []string{"Name", "Severity", "Tool", "Target", "Path"}

	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve findings: %w", err)
		}

		for _, finding := range set.Findings {
			findingType := strings.ToLower(strings.TrimSpace(finding.Type))
			if findingType == "" {
				findingType = "finding"
			}

			findingsByType[findingType] = append(findingsByType[findingType], finding)

			if propertyKeysByType[findingType] == nil {
				propertyKeysByType[findingType] = make(map[string]struct{})
			}
			for key := range finding.Properties {
				propertyKeysByType[findingType][key] = struct{}{}
			}
		}
	}

	sheetTypes := make([]string, 0, len(findingsByType))
	for findingType := range findingsByType {
		sheetTypes = append(sheetTypes, findingType)
	}
	sort.Strings(sheetTypes)

	for _, findingType := range sheetTypes {
		if _, err := f.NewSheet(findingType); err != nil {
			return fmt.Errorf("failed to create sheet '%s': %w", findingType, err)
		}

		var propertyKeys []string
		for key := range propertyKeysByType[findingType] {
			propertyKeys = append(propertyKeys, key)
		}
		sort.Strings(propertyKeys)

		headers := append(append([]string{}, standardFields...), propertyKeys...)
		if err := f.SetSheetRow(findingType, "A1", &headers); err != nil {
			return fmt.Errorf("failed to set headers for sheet '%s': %w", findingType, err)
		}

		rowNum := 2
		for _, finding := range findingsByType[findingType] {
			rowData := []interface{}{
				finding.Name,
				string(finding.Severity),
				finding.Tool,
				finding.Target,
				finding.Path,
			}
			for _, key := range propertyKeys {
				value, ok := finding.Properties[key]
				if !ok {
					rowData = append(rowData, "")
				} else {
					rowData = append(rowData, fmt.Sprintf("%v", value))
				}
			}

			cellAddress, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return fmt.Errorf("failed to get cell address for row %d in sheet '%s': %w", rowNum, findingType, err)
			}
			if err := f.SetSheetRow(findingType, cellAddress, &rowData); err != nil {
				return fmt.Errorf("failed to set data for row %d in sheet '%s': %w", rowNum, findingType, err)
			}
			rowNum++
		}
	}

	if defaultSheetName := f.GetSheetName(0); defaultSheetName == "Sheet1" {
		f.DeleteSheet(defaultSheetName)
	}

	if err := f.SaveAs(x.OutputPath); err != nil {
		return &core.OutputWriteError{Path: x.OutputPath, Err: err}
	}

	log.Infof("XLSX report generated successfully: %s", x.OutputPath)
	return nil
}

func writeRunSheet(f *excelize.File, run *core.Run) error {
	if _, err := f.NewSheet(runSheetName); err != nil {
		return fmt.Errorf("failed to create run sheet: %w", err)
	}

	headerRows := [][]interface{}{
		{"Run ID", run.ID},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", run.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Tools", strings.Join(run.Tools, ", ")},
		{"Findings", run.Summary.Findings},
	}
	for _, severity := range core.Severities {
		if count := run.Summary.BySeverity[severity]; count > 0 {
			headerRows = append(headerRows, []interface{}{fmt.Sprintf("Findings (%s)", severity), count})
		}
	}

	rowNum := 1
	for _, row := range headerRows {
		cellAddress, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		rowData := row
		if err := f.SetSheetRow(runSheetName, cellAddress, &rowData); err != nil {
			return fmt.Errorf("failed to write run sheet row %d: %w", rowNum, err)
		}
		rowNum++
	}

	rowNum++
	invocationHeaders := []interface{}{"Tool", "Target", "Status", "Exit Code", "Duration (ms)", "Error"}
	cellAddress, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(runSheetName, cellAddress, &invocationHeaders); err != nil {
		return fmt.Errorf("failed to write invocation headers: %w", err)
	}
	rowNum++

	for _, invocation := range run.Invocations {
		rowData := []interface{}{
			invocation.Tool,
			invocation.Target,
			invocation.Status,
			invocation.ExitCode,
			invocation.DurationMS,
			invocation.Error,
		}
		cellAddress, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(runSheetName, cellAddress, &rowData); err != nil {
			return fmt.Errorf("failed to write invocation row %d: %w", rowNum, err)
		}
		rowNum++
	}

	return nil
}
