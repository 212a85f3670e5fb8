// Package refdata reads the optional reference files. Both loaders return a
// typed result with a Present flag instead of hiding absence behind errors:
// the transform branches on the flag, the orchestrator decides what a load
// error means (it degrades to an absent result).
package refdata

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

type RosterEntry struct {
	Name string
	Site string
}

// Roster is the employee reference file. Present is false when the file was
// not loaded or has no site column, in which case site-scoped enrichment is
// impossible and employee counts stay at zero.
type Roster struct {
	Present bool
	Entries []RosterEntry
}

// Suppliers is the supplier reference workbook; only its data row count is
// ever used.
type Suppliers struct {
	Present bool
	Count   int
}

// LoadRoster reads a CSV roster. The header must contain a "site" column for
// the roster to count as present; a "name" column is carried along when there
// is one.
func LoadRoster(path string) (Roster, error) {
	const op = "refdata.LoadRoster"

	f, err := os.Open(path)
	if err != nil {
		return Roster{}, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Roster{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		return Roster{}, nil
	}

	siteIdx, nameIdx := -1, -1
	for i, col := range records[0] {
		switch col {
		case "site":
			siteIdx = i
		case "name":
			nameIdx = i
		}
	}
	if siteIdx < 0 {
		return Roster{}, nil
	}

	roster := Roster{Present: true}
	for _, rec := range records[1:] {
		if siteIdx >= len(rec) {
			continue
		}
		e := RosterEntry{Site: rec[siteIdx]}
		if nameIdx >= 0 && nameIdx < len(rec) {
			e.Name = rec[nameIdx]
		}
		roster.Entries = append(roster.Entries, e)
	}
	return roster, nil
}

// LoadSuppliers counts the data rows on the first sheet of an XLSX workbook,
// excluding the header row.
func LoadSuppliers(path string) (Suppliers, error) {
	const op = "refdata.LoadSuppliers"

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Suppliers{}, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Suppliers{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Suppliers{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return Suppliers{}, nil
	}

	return Suppliers{Present: true, Count: len(rows) - 1}, nil
}
