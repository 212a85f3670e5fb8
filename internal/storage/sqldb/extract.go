package sqldb

import (
	"context"
	"fmt"

	"bireport/internal/storage"
)

func (s *Storage) Orders(ctx context.Context) ([]storage.Order, error) {
	const op = "storage.sqldb.Orders"

	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, site, created_at, completed_at, cost FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []storage.Order
	for rows.Next() {
		var o storage.Order
		if err := rows.Scan(&o.OrderID, &o.Site, &o.CreatedAt, &o.CompletedAt, &o.Cost); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

func (s *Storage) Production(ctx context.Context) ([]storage.Production, error) {
	const op = "storage.sqldb.Production"

	rows, err := s.db.QueryContext(ctx,
		`SELECT prod_id, site, start_date, percent_complete, defects FROM production`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []storage.Production
	for rows.Next() {
		var p storage.Production
		if err := rows.Scan(&p.ProdID, &p.Site, &p.StartDate, &p.PercentComplete, &p.Defects); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

func (s *Storage) Employees(ctx context.Context) ([]storage.Employee, error) {
	const op = "storage.sqldb.Employees"

	rows, err := s.db.QueryContext(ctx, `SELECT emp_id, name, site FROM employees`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var employees []storage.Employee
	for rows.Next() {
		var e storage.Employee
		if err := rows.Scan(&e.EmpID, &e.Name, &e.Site); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return employees, nil
}
