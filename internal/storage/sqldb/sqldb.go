// Package sqldb implements the source and warehouse stores on database/sql.
// The same type serves both roles; the driver ("mysql" or "sqlite") and DSN
// come from configuration.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type Storage struct {
	db *sql.DB
}

func New(driver, dsn string) (*Storage, error) {
	const op = "storage.sqldb.New"

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// EnsureSeeded creates the source schema when needed and fills it with the
// fixed demo dataset if the orders table is empty. Returns whether seeding
// happened on this call.
func (s *Storage) EnsureSeeded(ctx context.Context) (bool, error) {
	const op = "storage.sqldb.EnsureSeeded"

	if err := s.createSchema(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return false, nil
	}

	if err := s.seedDemo(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (s *Storage) createSchema(ctx context.Context) error {
	// DDL restricted to the subset MySQL and SQLite both accept.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id INTEGER,
			site VARCHAR(64),
			created_at VARCHAR(10),
			completed_at VARCHAR(10),
			cost DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS production (
			prod_id INTEGER,
			site VARCHAR(64),
			start_date VARCHAR(10),
			percent_complete INTEGER,
			defects INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			emp_id INTEGER,
			name VARCHAR(64),
			site VARCHAR(64)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var (
	demoSites       = []string{"Bremen", "Hamburg", "Rendsburg"}
	demoSiteWeights = []float64{0.5, 0.3, 0.2}
)

const (
	demoOrderCount      = 500
	demoProductionCount = 300
	demoSeed            = 42
)

// seedDemo mirrors the canonical demo dataset: 500 orders (80% completed
// with 10-120 day lead times, cost ~N(10000, 2000)), 300 production records
// (percent 0-100, defects ~Poisson(0.8)), one demo team per site. The RNG
// seed is fixed so repeated bootstraps produce the same store.
func (s *Storage) seedDemo(ctx context.Context) error {
	const op = "storage.sqldb.seedDemo"

	rng := rand.New(rand.NewSource(demoSeed))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	for i := 1; i <= demoOrderCount; i++ {
		created := start.AddDate(0, 0, rng.Intn(600))
		var completed any
		if rng.Float64() < 0.8 {
			completed = created.AddDate(0, 0, 10+rng.Intn(110)).Format(dateLayout)
		}
		cost := math.Round((10000+rng.NormFloat64()*2000)*100) / 100
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (order_id, site, created_at, completed_at, cost) VALUES (?, ?, ?, ?, ?)`,
			i, pickSite(rng), created.Format(dateLayout), completed, cost)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	for i := 1; i <= demoProductionCount; i++ {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO production (prod_id, site, start_date, percent_complete, defects) VALUES (?, ?, ?, ?, ?)`,
			i, pickSite(rng), start.AddDate(0, 0, rng.Intn(600)).Format(dateLayout), rng.Intn(101), poisson(rng, 0.8))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	for i, site := range demoSites {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO employees (emp_id, name, site) VALUES (?, ?, ?)`,
			i+1, fmt.Sprintf("Team %c", 'A'+i), site)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func pickSite(rng *rand.Rand) string {
	r := rng.Float64()
	for i, w := range demoSiteWeights {
		if r < w {
			return demoSites[i]
		}
		r -= w
	}
	return demoSites[len(demoSites)-1]
}

// poisson draws a Poisson-distributed count (Knuth's method; lambda is small).
func poisson(rng *rand.Rand, lambda float64) int64 {
	l := math.Exp(-lambda)
	var k int64
	p := rng.Float64()
	for p > l {
		k++
		p *= rng.Float64()
	}
	return k
}
