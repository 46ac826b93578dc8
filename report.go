package bancheck

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// buildReport transforms raw probe results into the externally
// reported rows. When an error-ish summary was produced through a
// proxy, the endpoint is appended to the details.
// Parameters:
//   - raw: Raw results from all batches
//
// Returns:
//   - []ResultRow: External result rows, one per URL
func buildReport(raw []rawResult) []ResultRow {
	rows := make([]ResultRow, 0, len(raw))

	for _, r := range raw {
		steamID := r.URL[strings.LastIndex(r.URL, "/")+1:]
		summary, details := interpretStatus(r.RawStatus)

		if strings.Contains(summary, "Error") && r.ProxyUsed != "None" && !strings.Contains(details, r.ProxyUsed) {
			if details == "" {
				details = fmt.Sprintf("(Proxy: %s)", r.ProxyUsed)
			} else {
				details = fmt.Sprintf("%s (Proxy: %s)", details, r.ProxyUsed)
			}
		}

		rows = append(rows, ResultRow{
			SteamID:       steamID,
			StatusSummary: summary,
			Details:       details,
			ProxyUsed:     r.ProxyUsed,
			BatchID:       r.BatchID,
		})
	}

	return rows
}

// reportHeaders is the column layout of the XLSX export.
var reportHeaders = []string{"Steam ID", "Status", "Details", "Proxy Used", "Batch"}

// WriteReport exports a task's results to an XLSX workbook at path.
// Parameters:
//   - path: Destination file path
//   - record: Task record whose results are exported
//
// Returns:
//   - error: Any error building or saving the workbook
func WriteReport(path string, record *TaskRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, row := range record.Results {
		values := []any{row.SteamID, row.StatusSummary, row.Details, row.ProxyUsed, row.BatchID}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", i+1, err)
			}
		}
	}

	return f.SaveAs(path)
}
