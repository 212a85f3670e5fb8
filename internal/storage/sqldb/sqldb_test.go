package sqldb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bireport/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnsureSeededBootstrapsEmptyStore(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seeded, err := s.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, demoOrderCount)

	production, err := s.Production(ctx)
	require.NoError(t, err)
	assert.Len(t, production, demoProductionCount)

	employees, err := s.Employees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 3)
	assert.Equal(t, "Team A", employees[0].Name)
	assert.Equal(t, "Bremen", employees[0].Site)
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seeded, err := s.EnsureSeeded(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	seeded, err = s.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.False(t, seeded, "a populated store must not be reseeded")

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, demoOrderCount)
}

func TestSeededDataShape(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.EnsureSeeded(ctx)
	require.NoError(t, err)

	orders, err := s.Orders(ctx)
	require.NoError(t, err)

	completed := 0
	for _, o := range orders {
		require.True(t, o.OrderID.Valid)
		require.True(t, o.CreatedAt.Valid)
		_, err := time.Parse("2006-01-02", o.CreatedAt.String)
		require.NoError(t, err)
		if o.CompletedAt.Valid {
			completed++
		}
	}
	// 80% completion probability over 500 orders.
	assert.Greater(t, completed, 300)
	assert.Less(t, completed, 500)

	production, err := s.Production(ctx)
	require.NoError(t, err)
	for _, p := range production {
		assert.GreaterOrEqual(t, p.PercentComplete, int64(0))
		assert.LessOrEqual(t, p.PercentComplete, int64(100))
		assert.GreaterOrEqual(t, p.Defects, int64(0))
	}
}

func TestOrdersScanNullCompletion(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.createSchema(ctx))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (order_id, site, created_at, completed_at, cost) VALUES (?, ?, ?, ?, ?)`,
		1, "Bremen", "2024-01-10", nil, 99.5)
	require.NoError(t, err)

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.False(t, orders[0].CompletedAt.Valid)
	assert.Equal(t, 99.5, orders[0].Cost)
}

func TestReplaceKPIsOverwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	generated := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	first := []storage.KPIRow{
		{Site: "Bremen", YearMonth: "2024-01", YearMonthDate: &jan, OrdersCount: 5, CompletionRate: 0.6, GeneratedAt: generated},
		{Site: "Hamburg", YearMonth: "2024-01", YearMonthDate: &jan, OrdersCount: 2, CompletionRate: 0.5, GeneratedAt: generated},
	}
	require.NoError(t, s.ReplaceKPIs(ctx, first))

	second := []storage.KPIRow{
		{Site: "Rendsburg", YearMonth: "2024-02", OrdersCount: 1, GeneratedAt: generated},
	}
	require.NoError(t, s.ReplaceKPIs(ctx, second))

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kpis`).Scan(&n))
	assert.Equal(t, 1, n, "the table is replaced, not appended to")

	var site, period string
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT site, `+yearMonthCol+` FROM kpis`).Scan(&site, &period))
	assert.Equal(t, "Rendsburg", site)
	assert.Equal(t, "2024-02", period)
}

func TestReplaceKPIsNilPeriodStart(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	rows := []storage.KPIRow{
		{Site: "Bremen", YearMonth: "2024-01", GeneratedAt: time.Now()},
	}
	require.NoError(t, s.ReplaceKPIs(ctx, rows))

	var periodStart any
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT year_month_date FROM kpis`).Scan(&periodStart))
	assert.Nil(t, periodStart)
}
