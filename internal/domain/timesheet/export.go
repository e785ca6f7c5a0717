package timesheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ExportMonthlyPDF renders an employee's month roll-up and day sheet to a
// PDF under the export directory and returns the file path.
func (s *Service) ExportMonthlyPDF(ctx context.Context, employeeID string, from, to time.Time) (string, error) {
	report, err := s.Monthly(ctx, employeeID, from, to)
	if err != nil {
		return "", err
	}
	rows, err := s.DaySheet(ctx, employeeID, "", from, to)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.ExportDir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.ExportDir, fmt.Sprintf("timesheet-%s-%s.pdf", employeeID, from.Format("2006-01")))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Timesheet")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", employeeID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", report.Summary.From, report.Summary.To))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Worked: %.2f h   Overtime: %.2f h", report.Summary.ActualWork, report.Summary.Overtime))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Late: %d   Early leave: %d   Absent: %d", report.Summary.LateDays, report.Summary.EarlyDays, report.Summary.AbsentDays))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(30, 7, "Date")
	pdf.Cell(40, 7, "Shift")
	pdf.Cell(25, 7, "Worked")
	pdf.Cell(25, 7, "Overtime")
	pdf.Cell(40, 7, "Status")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.Cell(30, 6, row.Date)
		pdf.Cell(40, 6, row.ShiftName)
		pdf.Cell(25, 6, fmt.Sprintf("%.2f", row.ActualWork))
		pdf.Cell(25, 6, fmt.Sprintf("%.2f", row.Overtime))
		pdf.Cell(40, 6, string(row.Status))
		pdf.Ln(6)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}

// ExportDaySheetXLSX writes the day sheet for the window to a spreadsheet
// and returns the file path.
func (s *Service) ExportDaySheetXLSX(ctx context.Context, employeeID, department string, from, to time.Time) (string, error) {
	rows, err := s.DaySheet(ctx, employeeID, department, from, to)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.ExportDir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.ExportDir, fmt.Sprintf("daysheet-%s-%s.xlsx", from.Format("20060102"), to.Format("20060102")))

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Sheet1"
	header := []any{"Employee", "Date", "Shift", "Total", "Breaks", "Worked", "Capacity", "Overtime", "Status", "Holiday"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		values := []any{
			row.EmployeeID, row.Date, row.ShiftName,
			row.TotalHours, row.BreakHours, row.ActualWork,
			row.Capacity, row.Overtime, string(row.Status), row.IsHoliday,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
