package export

import (
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"bireport/internal/storage"
)

type parquetRow struct {
	Site               string  `parquet:"name=site, type=BYTE_ARRAY, convertedtype=UTF8"`
	YearMonth          string  `parquet:"name=year_month, type=BYTE_ARRAY, convertedtype=UTF8"`
	YearMonthDate      string  `parquet:"name=year_month_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	OrdersCount        int32   `parquet:"name=orders_count, type=INT32"`
	CompletedCount     int32   `parquet:"name=completed_count, type=INT32"`
	AvgLeadDays        float64 `parquet:"name=avg_lead_days, type=DOUBLE"`
	CostTotal          float64 `parquet:"name=cost_total, type=DOUBLE"`
	AvgPercentComplete float64 `parquet:"name=avg_percent_complete, type=DOUBLE"`
	DefectsTotal       int64   `parquet:"name=defects_total, type=INT64"`
	ProductionCount    int32   `parquet:"name=production_count, type=INT32"`
	CompletionRate     float64 `parquet:"name=completion_rate, type=DOUBLE"`
	GeneratedAt        string  `parquet:"name=generated_at, type=BYTE_ARRAY, convertedtype=UTF8"`
	EmployeeCount      int32   `parquet:"name=employee_count, type=INT32"`
	SupplierCount      int32   `parquet:"name=supplier_count, type=INT32"`
}

// WriteParquet writes the columnar export. Callers treat a failure here as
// non-fatal; the format is the optional one.
func WriteParquet(path string, kpis []storage.KPIRow) error {
	const op = "export.WriteParquet"

	if err := ensureDir(path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, k := range kpis {
		var periodStart string
		if k.YearMonthDate != nil {
			periodStart = k.YearMonthDate.Format(dateLayout)
		}
		row := parquetRow{
			Site:               k.Site,
			YearMonth:          k.YearMonth,
			YearMonthDate:      periodStart,
			OrdersCount:        int32(k.OrdersCount),
			CompletedCount:     int32(k.CompletedCount),
			AvgLeadDays:        k.AvgLeadDays,
			CostTotal:          k.CostTotal,
			AvgPercentComplete: k.AvgPercentComplete,
			DefectsTotal:       k.DefectsTotal,
			ProductionCount:    int32(k.ProductionCount),
			CompletionRate:     k.CompletionRate,
			GeneratedAt:        k.GeneratedAt.Format(time.RFC3339),
			EmployeeCount:      int32(k.EmployeeCount),
			SupplierCount:      int32(k.SupplierCount),
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
