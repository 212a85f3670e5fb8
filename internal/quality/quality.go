// Package quality holds the basic integrity checks run over the raw extract.
// Findings are reported, never enforced: a dirty batch still flows through
// the rest of the pipeline.
package quality

import (
	"bireport/internal/storage"
)

// Check scans orders and production records and returns one finding per
// violated rule, in a fixed order. It never mutates its inputs; an empty
// result means these checks found nothing.
func Check(orders []storage.Order, production []storage.Production) []string {
	var findings []string

	var missingID, missingCreated, duplicated, negativeCost bool
	seen := make(map[int64]struct{}, len(orders))
	for _, o := range orders {
		if !o.OrderID.Valid {
			missingID = true
		} else {
			if _, ok := seen[o.OrderID.Int64]; ok {
				duplicated = true
			}
			seen[o.OrderID.Int64] = struct{}{}
		}
		if !o.CreatedAt.Valid || o.CreatedAt.String == "" {
			missingCreated = true
		}
		if o.Cost < 0 {
			negativeCost = true
		}
	}

	if missingID {
		findings = append(findings, "Nulls in orders.order_id")
	}
	if missingCreated {
		findings = append(findings, "Nulls in orders.created_at")
	}
	if duplicated {
		findings = append(findings, "Duplicated order_id in orders")
	}
	if negativeCost {
		findings = append(findings, "Negative cost values found")
	}

	for _, p := range production {
		if p.PercentComplete < 0 || p.PercentComplete > 100 {
			findings = append(findings, "percent_complete out of range 0-100")
			break
		}
	}

	return findings
}
