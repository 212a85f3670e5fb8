package storage

import (
	"database/sql"
	"time"
)

// Order is a raw row from the source orders table. Identifier and date
// columns stay nullable so the quality checks can observe missing values.
type Order struct {
	OrderID     sql.NullInt64  `json:"order_id"`
	Site        string         `json:"site"`
	CreatedAt   sql.NullString `json:"created_at"`
	CompletedAt sql.NullString `json:"completed_at"`
	Cost        float64        `json:"cost"`
}

type Production struct {
	ProdID          int64  `json:"prod_id"`
	Site            string `json:"site"`
	StartDate       string `json:"start_date"`
	PercentComplete int64  `json:"percent_complete"`
	Defects         int64  `json:"defects"`
}

type Employee struct {
	EmpID int64  `json:"emp_id"`
	Name  string `json:"name"`
	Site  string `json:"site"`
}

// KPIRow is one reconciled (site, year-month) bucket. A side absent from the
// underlying facts keeps its fields at zero; only YearMonthDate may be nil,
// and only when the period key could not be turned back into a date.
type KPIRow struct {
	Site               string     `json:"site"`
	YearMonth          string     `json:"year_month"`
	YearMonthDate      *time.Time `json:"year_month_date,omitempty"`
	OrdersCount        int        `json:"orders_count"`
	CompletedCount     int        `json:"completed_count"`
	AvgLeadDays        float64    `json:"avg_lead_days"`
	CostTotal          float64    `json:"cost_total"`
	AvgPercentComplete float64    `json:"avg_percent_complete"`
	DefectsTotal       int64      `json:"defects_total"`
	ProductionCount    int        `json:"production_count"`
	CompletionRate     float64    `json:"completion_rate"`
	GeneratedAt        time.Time  `json:"generated_at"`
	EmployeeCount      int        `json:"employee_count"`
	SupplierCount      int        `json:"supplier_count"`
}
