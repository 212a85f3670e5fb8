// Package pipeline sequences one batch run: bootstrap, extract, quality
// checks, KPI transform, warehouse load, file exports, dashboard. It owns no
// computation of its own, only ordering and the fatal/non-fatal split.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bireport/internal/config"
	"bireport/internal/dashboard"
	"bireport/internal/export"
	"bireport/internal/quality"
	"bireport/internal/refdata"
	"bireport/internal/storage"
	"bireport/internal/transform"
)

type SourceStore interface {
	EnsureSeeded(ctx context.Context) (bool, error)
	Orders(ctx context.Context) ([]storage.Order, error)
	Production(ctx context.Context) ([]storage.Production, error)
	Employees(ctx context.Context) ([]storage.Employee, error)
}

type Warehouse interface {
	ReplaceKPIs(ctx context.Context, kpis []storage.KPIRow) error
}

type Pipeline struct {
	cfg       config.Config
	log       *slog.Logger
	source    SourceStore
	warehouse Warehouse
}

func New(cfg config.Config, log *slog.Logger, source SourceStore, warehouse Warehouse) *Pipeline {
	return &Pipeline{cfg: cfg, log: log, source: source, warehouse: warehouse}
}

// Run executes the stages strictly in order. Store and transform problems
// abort the run; export and dashboard problems are logged and skipped so the
// remaining sinks still get their output.
func (p *Pipeline) Run(ctx context.Context) error {
	const op = "pipeline.Run"

	log := p.log.With(slog.String("run_id", uuid.NewString()))
	started := time.Now()

	seeded, err := p.source.EnsureSeeded(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if seeded {
		log.Info("source store was empty, demo data created")
	}

	roster := p.loadRoster(log)
	suppliers := p.loadSuppliers(log)

	orders, err := p.source.Orders(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	production, err := p.source.Production(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	employees, err := p.source.Employees(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("extraction finished",
		slog.Int("orders", len(orders)),
		slog.Int("production", len(production)),
		slog.Int("employees", len(employees)),
	)

	findings := quality.Check(orders, production)
	if len(findings) == 0 {
		log.Info("no data quality issues (basic checks)")
	}
	for _, f := range findings {
		log.Warn("data quality issue", slog.String("finding", f))
	}

	kpis := transform.BuildKPIs(orders, production, roster, suppliers, time.Now())
	log.Info("kpi table built", slog.Int("rows", len(kpis)))

	if err := p.warehouse.ReplaceKPIs(ctx, kpis); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("kpi table written to warehouse", slog.Int("rows", len(kpis)))

	p.runExports(log, kpis)
	p.renderDashboard(log, kpis)

	log.Info("pipeline finished", slog.Duration("took", time.Since(started)))
	return nil
}

func (p *Pipeline) loadRoster(log *slog.Logger) refdata.Roster {
	roster, err := refdata.LoadRoster(p.cfg.EmployeesCSV)
	if err != nil {
		log.Warn("employee roster not loaded",
			slog.String("path", p.cfg.EmployeesCSV), slog.String("error", err.Error()))
		return refdata.Roster{}
	}
	if !roster.Present {
		log.Warn("employee roster unusable, no site column",
			slog.String("path", p.cfg.EmployeesCSV))
		return roster
	}
	log.Info("employee roster loaded",
		slog.String("path", p.cfg.EmployeesCSV), slog.Int("rows", len(roster.Entries)))
	return roster
}

func (p *Pipeline) loadSuppliers(log *slog.Logger) refdata.Suppliers {
	suppliers, err := refdata.LoadSuppliers(p.cfg.SuppliersXLSX)
	if err != nil {
		log.Warn("supplier list not loaded",
			slog.String("path", p.cfg.SuppliersXLSX), slog.String("error", err.Error()))
		return refdata.Suppliers{}
	}
	log.Info("supplier list loaded",
		slog.String("path", p.cfg.SuppliersXLSX), slog.Int("rows", suppliers.Count))
	return suppliers
}

func (p *Pipeline) runExports(log *slog.Logger, kpis []storage.KPIRow) {
	if err := export.WriteCSV(p.cfg.CSVExport, kpis); err != nil {
		log.Error("csv export failed", slog.String("error", err.Error()))
	} else {
		log.Info("csv export written", slog.String("path", p.cfg.CSVExport))
	}

	if err := export.WriteXLSX(p.cfg.XLSXExport, kpis); err != nil {
		log.Error("xlsx export failed", slog.String("error", err.Error()))
	} else {
		log.Info("xlsx export written", slog.String("path", p.cfg.XLSXExport))
	}

	if err := export.WriteParquet(p.cfg.ParquetExport, kpis); err != nil {
		log.Error("parquet export failed (optional)", slog.String("error", err.Error()))
	} else {
		log.Info("parquet export written", slog.String("path", p.cfg.ParquetExport))
	}
}

func (p *Pipeline) renderDashboard(log *slog.Logger, kpis []storage.KPIRow) {
	if err := dashboard.Render(p.cfg.DashboardHTML, kpis); err != nil {
		log.Error("dashboard rendering failed", slog.String("error", err.Error()))
		return
	}
	log.Info("dashboard written", slog.String("path", p.cfg.DashboardHTML))
}
