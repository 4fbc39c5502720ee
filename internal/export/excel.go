// Package export renders alert history and report statistics as Excel
// workbooks for the city's operations team.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"citysense/internal/models"
)

// AlertExportHeader 告警历史导出表头
var AlertExportHeader = []string{
	"Alert ID",
	"Title",
	"Level",
	"Status",
	"Location",
	"Latitude",
	"Longitude",
	"Sensor ID",
	"Trigger Value",
	"Created At",
	"Acknowledged At",
	"Resolved At",
}

// ReportExportHeader 上报统计导出表头
var ReportExportHeader = []string{
	"Report ID",
	"Title",
	"Type",
	"Priority",
	"Status",
	"Location",
	"Citizen Name",
	"Created At",
	"Resolved At",
}

const timeLayout = "2006-01-02 15:04:05"

// GenerateAlertExport 生成告警历史 Excel 文件
func GenerateAlertExport(alerts []*models.Alert) ([]byte, error) {
	rows := make([][]any, 0, len(alerts))
	for _, a := range alerts {
		row := []any{
			a.ID, a.Title, string(a.Level), string(a.Status),
			a.Location, a.Latitude, a.Longitude,
			"", "", a.CreatedAt.Format(timeLayout), "", "",
		}
		if a.SensorID != nil {
			row[7] = *a.SensorID
		}
		if a.TriggerValue != nil {
			row[8] = *a.TriggerValue
		}
		if a.AcknowledgedAt != nil {
			row[10] = a.AcknowledgedAt.Format(timeLayout)
		}
		if a.ResolvedAt != nil {
			row[11] = a.ResolvedAt.Format(timeLayout)
		}
		rows = append(rows, row)
	}
	return generateExcel("Alerts", AlertExportHeader, rows)
}

// GenerateReportExport 生成人口上报 Excel 文件
func GenerateReportExport(reports []*models.PopulationReport) ([]byte, error) {
	rows := make([][]any, 0, len(reports))
	for _, r := range reports {
		row := []any{
			r.ID, r.Title, string(r.Type), string(r.Priority), string(r.Status),
			r.Location, "", r.CreatedAt.Format(timeLayout), "",
		}
		if r.CitizenName != nil {
			row[6] = *r.CitizenName
		}
		if r.ResolvedAt != nil {
			row[8] = r.ResolvedAt.Format(timeLayout)
		}
		rows = append(rows, row)
	}
	return generateExcel("Population Reports", ReportExportHeader, rows)
}

// generateExcel 生成带表头样式的单工作表 Excel 文件
func generateExcel(sheetName string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 需要文件保持打开，错误路径上手动 Close

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}
	return buf.Bytes(), nil
}
