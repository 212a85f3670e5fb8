// Package transform turns raw order and production records into the
// per-(site, month) KPI table: date normalization, two independent
// aggregations, a full outer join of the results, zero-guarded ratio
// derivation and optional reference-data enrichment.
package transform

import (
	"database/sql"
	"math"
	"sort"
	"time"

	"bireport/internal/refdata"
	"bireport/internal/storage"
)

const (
	dateLayout   = "2006-01-02"
	periodLayout = "2006-01"
)

type groupKey struct {
	site   string
	period string
}

type orderFacts struct {
	ordersCount    int
	completedCount int
	leadDaysSum    int
	leadDaysCount  int
	costTotal      float64
}

type productionFacts struct {
	percentSum      int64
	defectsTotal    int64
	productionCount int
}

// BuildKPIs computes one KPI row per (site, year-month) appearing in either
// fact set. A key present on only one side keeps the other side's metrics at
// zero. The function is pure apart from the caller-supplied timestamp.
func BuildKPIs(orders []storage.Order, production []storage.Production,
	roster refdata.Roster, suppliers refdata.Suppliers, now time.Time) []storage.KPIRow {

	orderAgg := aggregateOrders(orders)
	prodAgg := aggregateProduction(production)

	// Explicit union of both key sets: this is the full outer join.
	keys := make(map[groupKey]struct{}, len(orderAgg)+len(prodAgg))
	for k := range orderAgg {
		keys[k] = struct{}{}
	}
	for k := range prodAgg {
		keys[k] = struct{}{}
	}

	employeesBySite := employeeCounts(roster)

	rows := make([]storage.KPIRow, 0, len(keys))
	for k := range keys {
		row := storage.KPIRow{
			Site:          k.site,
			YearMonth:     k.period,
			YearMonthDate: periodStart(k.period),
			GeneratedAt:   now,
			EmployeeCount: employeesBySite[k.site],
		}
		if of, ok := orderAgg[k]; ok {
			row.OrdersCount = of.ordersCount
			row.CompletedCount = of.completedCount
			if of.leadDaysCount > 0 {
				row.AvgLeadDays = round2(float64(of.leadDaysSum) / float64(of.leadDaysCount))
			}
			row.CostTotal = of.costTotal
		}
		if pf, ok := prodAgg[k]; ok {
			row.AvgPercentComplete = round2(float64(pf.percentSum) / float64(pf.productionCount))
			row.DefectsTotal = pf.defectsTotal
			row.ProductionCount = pf.productionCount
		}
		row.CompletionRate = completionRate(row.CompletedCount, row.OrdersCount)
		if suppliers.Present {
			// Deliberately a global count on every row, unlike the
			// site-scoped employee enrichment.
			row.SupplierCount = suppliers.Count
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Site != rows[j].Site {
			return rows[i].Site < rows[j].Site
		}
		return rows[i].YearMonth < rows[j].YearMonth
	})

	return rows
}

func aggregateOrders(orders []storage.Order) map[groupKey]orderFacts {
	agg := make(map[groupKey]orderFacts)
	for _, o := range orders {
		created, ok := parseDate(o.CreatedAt)
		if !ok {
			// Flagged by the quality checks; without a creation date the
			// record cannot be bucketed.
			continue
		}
		k := groupKey{site: o.Site, period: created.Format(periodLayout)}
		f := agg[k]
		f.ordersCount++
		f.costTotal += o.Cost
		// An unparseable completion value means "not completed", and
		// incomplete orders stay out of the lead-time average entirely.
		if completed, ok := parseDate(o.CompletedAt); ok {
			f.completedCount++
			f.leadDaysSum += int(completed.Sub(created) / (24 * time.Hour))
			f.leadDaysCount++
		}
		agg[k] = f
	}
	return agg
}

func aggregateProduction(production []storage.Production) map[groupKey]productionFacts {
	agg := make(map[groupKey]productionFacts)
	for _, p := range production {
		start, err := time.Parse(dateLayout, p.StartDate)
		if err != nil {
			continue
		}
		k := groupKey{site: p.Site, period: start.Format(periodLayout)}
		f := agg[k]
		f.percentSum += p.PercentComplete
		f.defectsTotal += p.Defects
		f.productionCount++
		agg[k] = f
	}
	return agg
}

func employeeCounts(roster refdata.Roster) map[string]int {
	counts := make(map[string]int)
	if !roster.Present {
		return counts
	}
	for _, e := range roster.Entries {
		counts[e.Site]++
	}
	return counts
}

// completionRate is completed/total rounded to three decimals, defined as 0
// for empty groups so no non-finite ratio ever reaches the KPI table.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return round3(float64(completed) / float64(total))
}

// periodStart turns a "YYYY-MM" key back into the first day of that month.
// A malformed key yields nil rather than an error; the row is still usable,
// it just cannot be placed on a time axis.
func periodStart(period string) *time.Time {
	t, err := time.Parse(dateLayout, period+"-01")
	if err != nil {
		return nil
	}
	return &t
}

func parseDate(v sql.NullString) (time.Time, bool) {
	if !v.Valid || v.String == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
