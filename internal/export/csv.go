// Package export writes the KPI table to its flat-file formats and reads the
// CSV form back for verification.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bireport/internal/storage"
)

const dateLayout = "2006-01-02"

var kpiHeader = []string{
	"site", "year_month", "year_month_date", "orders_count", "completed_count",
	"avg_lead_days", "cost_total", "avg_percent_complete", "defects_total",
	"production_count", "completion_rate", "generated_at", "employee_count",
	"supplier_count",
}

func WriteCSV(path string, kpis []storage.KPIRow) error {
	const op = "export.WriteCSV"

	if err := ensureDir(path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(kpiHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, k := range kpis {
		if err := w.Write(csvRecord(k)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ReadCSV parses a file written by WriteCSV back into KPI rows.
func ReadCSV(path string) ([]storage.KPIRow, error) {
	const op = "export.ReadCSV"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var kpis []storage.KPIRow
	for _, rec := range records[1:] {
		k, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		kpis = append(kpis, k)
	}
	return kpis, nil
}

func csvRecord(k storage.KPIRow) []string {
	var periodStart string
	if k.YearMonthDate != nil {
		periodStart = k.YearMonthDate.Format(dateLayout)
	}
	return []string{
		k.Site,
		k.YearMonth,
		periodStart,
		strconv.Itoa(k.OrdersCount),
		strconv.Itoa(k.CompletedCount),
		formatFloat(k.AvgLeadDays),
		formatFloat(k.CostTotal),
		formatFloat(k.AvgPercentComplete),
		strconv.FormatInt(k.DefectsTotal, 10),
		strconv.Itoa(k.ProductionCount),
		formatFloat(k.CompletionRate),
		k.GeneratedAt.Format(time.RFC3339),
		strconv.Itoa(k.EmployeeCount),
		strconv.Itoa(k.SupplierCount),
	}
}

func parseRecord(rec []string) (storage.KPIRow, error) {
	if len(rec) != len(kpiHeader) {
		return storage.KPIRow{}, fmt.Errorf("expected %d fields, got %d", len(kpiHeader), len(rec))
	}

	var k storage.KPIRow
	var err error

	k.Site = rec[0]
	k.YearMonth = rec[1]
	if rec[2] != "" {
		t, err := time.Parse(dateLayout, rec[2])
		if err != nil {
			return storage.KPIRow{}, err
		}
		k.YearMonthDate = &t
	}
	if k.OrdersCount, err = strconv.Atoi(rec[3]); err != nil {
		return storage.KPIRow{}, err
	}
	if k.CompletedCount, err = strconv.Atoi(rec[4]); err != nil {
		return storage.KPIRow{}, err
	}
	if k.AvgLeadDays, err = strconv.ParseFloat(rec[5], 64); err != nil {
		return storage.KPIRow{}, err
	}
	if k.CostTotal, err = strconv.ParseFloat(rec[6], 64); err != nil {
		return storage.KPIRow{}, err
	}
	if k.AvgPercentComplete, err = strconv.ParseFloat(rec[7], 64); err != nil {
		return storage.KPIRow{}, err
	}
	if k.DefectsTotal, err = strconv.ParseInt(rec[8], 10, 64); err != nil {
		return storage.KPIRow{}, err
	}
	if k.ProductionCount, err = strconv.Atoi(rec[9]); err != nil {
		return storage.KPIRow{}, err
	}
	if k.CompletionRate, err = strconv.ParseFloat(rec[10], 64); err != nil {
		return storage.KPIRow{}, err
	}
	if k.GeneratedAt, err = time.Parse(time.RFC3339, rec[11]); err != nil {
		return storage.KPIRow{}, err
	}
	if k.EmployeeCount, err = strconv.Atoi(rec[12]); err != nil {
		return storage.KPIRow{}, err
	}
	if k.SupplierCount, err = strconv.Atoi(rec[13]); err != nil {
		return storage.KPIRow{}, err
	}
	return k, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
