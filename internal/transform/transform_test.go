package transform

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bireport/internal/refdata"
	"bireport/internal/storage"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func ni(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func order(id int64, site, created, completed string, cost float64) storage.Order {
	o := storage.Order{OrderID: ni(id), Site: site, CreatedAt: ns(created), Cost: cost}
	if completed != "" {
		o.CompletedAt = ns(completed)
	}
	return o
}

func findRow(t *testing.T, rows []storage.KPIRow, site, period string) storage.KPIRow {
	t.Helper()
	for _, r := range rows {
		if r.Site == site && r.YearMonth == period {
			return r
		}
	}
	t.Fatalf("no KPI row for (%s, %s)", site, period)
	return storage.KPIRow{}
}

func TestBuildKPIsEmptyInputs(t *testing.T) {
	rows := BuildKPIs(nil, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	assert.Empty(t, rows)
}

func TestIncompleteOrderCountsButDoesNotComplete(t *testing.T) {
	orders := []storage.Order{
		order(1, "SiteA", "2024-01-10", "", 100),
	}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	require.Len(t, rows, 1)

	row := findRow(t, rows, "SiteA", "2024-01")
	assert.Equal(t, 1, row.OrdersCount)
	assert.Equal(t, 0, row.CompletedCount)
	assert.Equal(t, 0.0, row.AvgLeadDays)
	assert.Equal(t, 0.0, row.CompletionRate)
}

func TestAvgLeadDaysExcludesIncompleteOrders(t *testing.T) {
	completedOnly := []storage.Order{
		order(1, "Bremen", "2024-01-01", "2024-01-11", 100), // 10 days
		order(2, "Bremen", "2024-01-05", "2024-01-25", 100), // 20 days
	}

	rows := BuildKPIs(completedOnly, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	base := findRow(t, rows, "Bremen", "2024-01")
	assert.Equal(t, 15.0, base.AvgLeadDays)

	// Adding an incomplete order to the group must not move the average.
	withIncomplete := append(completedOnly, order(3, "Bremen", "2024-01-20", "", 100))
	rows = BuildKPIs(withIncomplete, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	row := findRow(t, rows, "Bremen", "2024-01")
	assert.Equal(t, base.AvgLeadDays, row.AvgLeadDays)
	assert.Equal(t, 3, row.OrdersCount)
	assert.Equal(t, 2, row.CompletedCount)
}

func TestAvgLeadDaysZeroWhenNoCompletions(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-02-01", "", 100),
		order(2, "Bremen", "2024-02-02", "", 100),
	}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	row := findRow(t, rows, "Bremen", "2024-02")
	assert.Equal(t, 0.0, row.AvgLeadDays)
}

func TestUnparseableCompletionMeansNotCompleted(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-01-01", "not-a-date", 100),
	}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	row := findRow(t, rows, "Bremen", "2024-01")
	assert.Equal(t, 1, row.OrdersCount)
	assert.Equal(t, 0, row.CompletedCount)
}

func TestOrdersWithoutCreationDateAreSkipped(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-01-01", "", 100),
		{OrderID: ni(2), Site: "Bremen", Cost: 100}, // no created_at
	}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].OrdersCount)
}

func TestOuterJoinZeroFillsMissingSide(t *testing.T) {
	orders := []storage.Order{}
	for i := int64(1); i <= 10; i++ {
		orders = append(orders, order(i, "Bremen", "2024-03-05", "2024-03-20", 50))
		orders = append(orders, order(100+i, "Hamburg", "2024-03-05", "2024-03-20", 50))
	}
	// Hamburg is absent from production for that month entirely.
	production := []storage.Production{
		{ProdID: 1, Site: "Bremen", StartDate: "2024-03-10", PercentComplete: 100, Defects: 0},
	}

	rows := BuildKPIs(orders, production, refdata.Roster{}, refdata.Suppliers{}, testNow)
	require.Len(t, rows, 2)

	hamburg := findRow(t, rows, "Hamburg", "2024-03")
	assert.Equal(t, 10, hamburg.OrdersCount)
	assert.Equal(t, 0, hamburg.ProductionCount)
	assert.Equal(t, 0.0, hamburg.AvgPercentComplete)
	assert.Equal(t, int64(0), hamburg.DefectsTotal)

	bremen := findRow(t, rows, "Bremen", "2024-03")
	assert.Equal(t, 1, bremen.ProductionCount)
	assert.Equal(t, 100.0, bremen.AvgPercentComplete)
}

func TestProductionOnlyGroupHasZeroOrderMetrics(t *testing.T) {
	production := []storage.Production{
		{ProdID: 1, Site: "Rendsburg", StartDate: "2024-04-01", PercentComplete: 40, Defects: 2},
		{ProdID: 2, Site: "Rendsburg", StartDate: "2024-04-15", PercentComplete: 60, Defects: 1},
	}

	rows := BuildKPIs(nil, production, refdata.Roster{}, refdata.Suppliers{}, testNow)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 0, row.OrdersCount)
	assert.Equal(t, 0, row.CompletedCount)
	assert.Equal(t, 0.0, row.CostTotal)
	assert.Equal(t, 0.0, row.CompletionRate, "rate must be zero-guarded, not NaN")
	assert.Equal(t, 50.0, row.AvgPercentComplete)
	assert.Equal(t, int64(3), row.DefectsTotal)
}

func TestCompletionRateBoundsAndRounding(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-01-01", "2024-01-10", 10),
		order(2, "Bremen", "2024-01-02", "", 10),
		order(3, "Bremen", "2024-01-03", "", 10),
	}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	row := findRow(t, rows, "Bremen", "2024-01")
	assert.Equal(t, 0.333, row.CompletionRate)
	assert.GreaterOrEqual(t, row.CompletionRate, 0.0)
	assert.LessOrEqual(t, row.CompletionRate, 1.0)
}

func TestCompletionRateAlwaysInUnitInterval(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-01-01", "2024-02-01", 10),
		order(2, "Bremen", "2024-01-15", "", 10),
		order(3, "Hamburg", "2024-01-01", "2024-01-02", 10),
		order(4, "Hamburg", "2024-02-01", "2024-02-02", 10),
		order(5, "Rendsburg", "2024-03-01", "", 10),
	}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	for _, row := range rows {
		if row.OrdersCount > 0 {
			assert.GreaterOrEqual(t, row.CompletionRate, 0.0)
			assert.LessOrEqual(t, row.CompletionRate, 1.0)
		} else {
			assert.Equal(t, 0.0, row.CompletionRate)
		}
	}
}

func TestPeriodStartDerivation(t *testing.T) {
	rows := BuildKPIs([]storage.Order{
		order(1, "Bremen", "2024-05-20", "", 10),
	}, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)

	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].YearMonthDate)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *rows[0].YearMonthDate)
}

func TestPeriodStartMalformedKeyYieldsNil(t *testing.T) {
	assert.Nil(t, periodStart("garbage"))
	assert.Nil(t, periodStart("2024-13"))
	require.NotNil(t, periodStart("2024-01"))
}

func TestEmployeeEnrichmentIsSiteScoped(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-01-01", "", 10),
		order(2, "Hamburg", "2024-01-01", "", 10),
	}
	roster := refdata.Roster{
		Present: true,
		Entries: []refdata.RosterEntry{
			{Name: "Team A", Site: "Bremen"},
			{Name: "Team B", Site: "Bremen"},
			{Name: "Team C", Site: "Hamburg"},
		},
	}

	rows := BuildKPIs(orders, nil, roster, refdata.Suppliers{}, testNow)
	assert.Equal(t, 2, findRow(t, rows, "Bremen", "2024-01").EmployeeCount)
	assert.Equal(t, 1, findRow(t, rows, "Hamburg", "2024-01").EmployeeCount)
}

// The supplier count is attached as a global constant on every row while the
// employee count is per site. The asymmetry is intentional and pinned here.
func TestEnrichSupplierCountIsGlobal(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-01-01", "", 10),
		order(2, "Hamburg", "2024-02-01", "", 10),
	}
	suppliers := refdata.Suppliers{Present: true, Count: 7}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, suppliers, testNow)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 7, row.SupplierCount)
	}
}

func TestAbsentReferenceDataYieldsZeroEnrichment(t *testing.T) {
	orders := []storage.Order{order(1, "Bremen", "2024-01-01", "", 10)}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].EmployeeCount)
	assert.Equal(t, 0, rows[0].SupplierCount)
}

func TestRowsSortedBySiteThenPeriod(t *testing.T) {
	orders := []storage.Order{
		order(1, "Hamburg", "2024-02-01", "", 10),
		order(2, "Bremen", "2024-03-01", "", 10),
		order(3, "Bremen", "2024-01-01", "", 10),
	}

	rows := BuildKPIs(orders, nil, refdata.Roster{}, refdata.Suppliers{}, testNow)
	require.Len(t, rows, 3)
	assert.Equal(t, "Bremen", rows[0].Site)
	assert.Equal(t, "2024-01", rows[0].YearMonth)
	assert.Equal(t, "Bremen", rows[1].Site)
	assert.Equal(t, "2024-03", rows[1].YearMonth)
	assert.Equal(t, "Hamburg", rows[2].Site)
}

func TestMeansAreRoundedToTwoDecimals(t *testing.T) {
	orders := []storage.Order{
		order(1, "Bremen", "2024-01-01", "2024-01-02", 10), // 1 day
		order(2, "Bremen", "2024-01-01", "2024-01-03", 10), // 2 days
		order(3, "Bremen", "2024-01-01", "2024-01-05", 10), // 4 days
	}
	production := []storage.Production{
		{ProdID: 1, Site: "Bremen", StartDate: "2024-01-05", PercentComplete: 33},
		{ProdID: 2, Site: "Bremen", StartDate: "2024-01-06", PercentComplete: 33},
		{ProdID: 3, Site: "Bremen", StartDate: "2024-01-07", PercentComplete: 34},
	}

	rows := BuildKPIs(orders, production, refdata.Roster{}, refdata.Suppliers{}, testNow)
	row := findRow(t, rows, "Bremen", "2024-01")
	assert.Equal(t, 2.33, row.AvgLeadDays)
	assert.Equal(t, 33.33, row.AvgPercentComplete)
	assert.Equal(t, 1.0, row.CompletionRate)
}
