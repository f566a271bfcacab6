package google

import (
	"fmt"
	"strings"
	"time"

	"finboard/internal/core"
	ports "finboard/internal/sheets"
)

// parseRows converts a values matrix (as returned by the Sheets API) into
// ledger rows. A header row is located by name so reordered columns still
// parse; without one the Header order is assumed. Rows without an ID or with
// an unreadable timestamp or date are skipped.
func parseRows(values [][]interface{}) ([]ports.Row, error) {
	out := make([]ports.Row, 0, len(values))
	if len(values) == 0 {
		return out, nil
	}

	cols := make([]int, len(ports.Header))
	first := toStrings(values[0])
	start := 0
	if indexOf(first, "ID") >= 0 {
		start = 1
		var missing []string
		for i, name := range ports.Header {
			cols[i] = indexOf(first, name)
			if cols[i] == -1 {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), first)
		}
	} else {
		for i := range cols {
			cols[i] = i
		}
	}

	for _, raw := range values[start:] {
		row := toStrings(raw)
		id := safeGet(row, cols[2])
		if id == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, safeGet(row, cols[0]))
		if err != nil {
			continue
		}
		date, err := core.ParseDate(safeGet(row, cols[4]))
		if err != nil {
			continue
		}
		out = append(out, ports.Row{
			RecordedAt:  at,
			Op:          ports.Op(strings.ToLower(safeGet(row, cols[1]))),
			ID:          id,
			Owner:       safeGet(row, cols[3]),
			Date:        date,
			Description: safeGet(row, cols[5]),
			Category:    core.Category(safeGet(row, cols[6])),
			Amount:      safeGet(row, cols[7]),
		})
	}
	return out, nil
}
