package sqldb

import (
	"context"
	"fmt"
	"time"

	"bireport/internal/storage"
)

const yearMonthCol = "`year_month`"

// ReplaceKPIs drops and rebuilds the kpis table with the given rows. The
// previous table survives any failure before the drop; after it the load is
// not transactional across DDL on every engine, which matches the
// overwrite-on-write contract of the warehouse.
func (s *Storage) ReplaceKPIs(ctx context.Context, kpis []storage.KPIRow) error {
	const op = "storage.sqldb.ReplaceKPIs"

	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS kpis`); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// YEAR_MONTH is a reserved word in MySQL; the backtick form is also
	// valid SQLite.
	create := `CREATE TABLE kpis (
		site VARCHAR(64),
		` + yearMonthCol + ` VARCHAR(7),
		year_month_date VARCHAR(10),
		orders_count INTEGER,
		completed_count INTEGER,
		avg_lead_days DOUBLE PRECISION,
		cost_total DOUBLE PRECISION,
		avg_percent_complete DOUBLE PRECISION,
		defects_total INTEGER,
		production_count INTEGER,
		completion_rate DOUBLE PRECISION,
		generated_at VARCHAR(35),
		employee_count INTEGER,
		supplier_count INTEGER
	)`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	stmt := `INSERT INTO kpis (
		site, ` + yearMonthCol + `, year_month_date, orders_count, completed_count,
		avg_lead_days, cost_total, avg_percent_complete, defects_total,
		production_count, completion_rate, generated_at, employee_count, supplier_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, k := range kpis {
		var periodStart any
		if k.YearMonthDate != nil {
			periodStart = k.YearMonthDate.Format(dateLayout)
		}
		_, err := tx.ExecContext(ctx, stmt,
			k.Site, k.YearMonth, periodStart, k.OrdersCount, k.CompletedCount,
			k.AvgLeadDays, k.CostTotal, k.AvgPercentComplete, k.DefectsTotal,
			k.ProductionCount, k.CompletionRate, k.GeneratedAt.Format(time.RFC3339),
			k.EmployeeCount, k.SupplierCount)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
