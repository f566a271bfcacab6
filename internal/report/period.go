// This file implements the Strategy Pattern for report periods. Each preset key
// (1m, 3m, 6m, 1y) maps to a strategy that turns "today" into a date range.

package report

import (
	"fmt"
	"sort"
	"sync"

	"finboard/internal/core"
)

// DefaultPeriod is used when no or an unknown period key is given.
const DefaultPeriod = "3m"

// PeriodStrategy resolves a report period relative to today.
type PeriodStrategy interface {
	Range(today core.Date) DateRange
}

// MonthsBack covers from the first day of the month N months ago through the
// last day of the current month.
type MonthsBack int

func (m MonthsBack) Range(today core.Date) DateRange {
	return DateRange{
		Start: today.AddMonths(-int(m)).StartOfMonth(),
		End:   today.EndOfMonth(),
	}
}

var (
	periodMu         sync.RWMutex
	periodStrategies = map[string]PeriodStrategy{
		"1m": MonthsBack(1),
		"3m": MonthsBack(3),
		"6m": MonthsBack(6),
		"1y": MonthsBack(12),
	}
)

// GetPeriod returns the strategy registered for key.
func GetPeriod(key string) (PeriodStrategy, error) {
	periodMu.RLock()
	defer periodMu.RUnlock()
	s, ok := periodStrategies[key]
	if !ok {
		return nil, fmt.Errorf("unknown report period: %s", key)
	}
	return s, nil
}

// ResolvePeriod returns the range for key, falling back to DefaultPeriod. The
// key actually used is returned alongside.
func ResolvePeriod(key string, today core.Date) (string, DateRange) {
	s, err := GetPeriod(key)
	if err != nil {
		key = DefaultPeriod
		s, _ = GetPeriod(key)
	}
	return key, s.Range(today)
}

// RegisterPeriod adds or replaces a period preset.
func RegisterPeriod(key string, s PeriodStrategy) {
	periodMu.Lock()
	defer periodMu.Unlock()
	periodStrategies[key] = s
}

// Periods lists the registered preset keys in sorted order.
func Periods() []string {
	periodMu.RLock()
	defer periodMu.RUnlock()
	keys := make([]string, 0, len(periodStrategies))
	for k := range periodStrategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
