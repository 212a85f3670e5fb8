package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"bireport/internal/storage"
)

// WriteXLSX renders the KPI table as a single-sheet workbook with a styled
// header row.
func WriteXLSX(path string, kpis []storage.KPIRow) error {
	const op = "export.WriteXLSX"

	if err := ensureDir(path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "KPIs"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	for i, name := range kpiHeader {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(kpiHeader), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for rowIdx, k := range kpis {
		rowNum := rowIdx + 2
		f.SetCellValue(sheet, cellName(1, rowNum), k.Site)
		f.SetCellValue(sheet, cellName(2, rowNum), k.YearMonth)
		if k.YearMonthDate != nil {
			f.SetCellValue(sheet, cellName(3, rowNum), k.YearMonthDate.Format(dateLayout))
		}
		f.SetCellValue(sheet, cellName(4, rowNum), k.OrdersCount)
		f.SetCellValue(sheet, cellName(5, rowNum), k.CompletedCount)
		f.SetCellValue(sheet, cellName(6, rowNum), k.AvgLeadDays)
		f.SetCellValue(sheet, cellName(7, rowNum), k.CostTotal)
		f.SetCellValue(sheet, cellName(8, rowNum), k.AvgPercentComplete)
		f.SetCellValue(sheet, cellName(9, rowNum), k.DefectsTotal)
		f.SetCellValue(sheet, cellName(10, rowNum), k.ProductionCount)
		f.SetCellValue(sheet, cellName(11, rowNum), k.CompletionRate)
		f.SetCellValue(sheet, cellName(12, rowNum), k.GeneratedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, cellName(13, rowNum), k.EmployeeCount)
		f.SetCellValue(sheet, cellName(14, rowNum), k.SupplierCount)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
