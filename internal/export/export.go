// FilePath: internal/export/export.go
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gardenhub/server/hub/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	deviceHistorySheet = "Device History"
	timeLayout         = "2006-01-02 15:04:05"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var deviceHistoryHeader = []string{"ID", "Device", "Status", "Start Time", "End Time", "Duration (s)", "Reason"}

var deviceHistoryWidths = []float64{8, 10, 8, 22, 22, 14, 40}

// DeviceHistoryWorkbook renders run intervals as an xlsx workbook with a
// frozen header row. Open intervals leave end time and duration empty.
func DeviceHistoryWorkbook(records []models.DeviceOperationRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(deviceHistorySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3E6"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range deviceHistoryHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(deviceHistorySheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(deviceHistorySheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(deviceHistorySheet, col, col, deviceHistoryWidths[i]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		row := []interface{}{rec.ID, rec.Device, rec.Status, rec.StartTime.UTC().Format(timeLayout), nil, nil, rec.Reason}
		if rec.EndTime != nil {
			row[4] = rec.EndTime.UTC().Format(timeLayout)
		}
		if rec.Duration != nil {
			row[5] = *rec.Duration
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(deviceHistorySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(deviceHistorySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename names an export taken at t.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", prefix, t.UTC().Format("20060102-150405"))
}
