package report

import (
	"testing"

	"finboard/internal/core"
)

func TestPeriodRanges(t *testing.T) {
	today := core.NewDate(2025, 5, 20)

	tests := []struct {
		key   string
		start core.Date
	}{
		{"1m", core.NewDate(2025, 4, 1)},
		{"3m", core.NewDate(2025, 2, 1)},
		{"6m", core.NewDate(2024, 11, 1)},
		{"1y", core.NewDate(2024, 5, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s, err := GetPeriod(tt.key)
			if err != nil {
				t.Fatalf("GetPeriod(%q) error: %v", tt.key, err)
			}
			r := s.Range(today)
			if !r.Start.SameDay(tt.start) {
				t.Errorf("start = %s, want %s", r.Start, tt.start)
			}
			if !r.End.SameDay(core.NewDate(2025, 5, 31)) {
				t.Errorf("end = %s, want 2025-05-31", r.End)
			}
		})
	}
}

func TestResolvePeriodFallsBack(t *testing.T) {
	today := core.NewDate(2025, 5, 20)
	key, r := ResolvePeriod("5y", today)
	if key != DefaultPeriod {
		t.Fatalf("expected fallback to %s, got %s", DefaultPeriod, key)
	}
	if !r.Start.SameDay(core.NewDate(2025, 2, 1)) {
		t.Fatalf("unexpected start %s", r.Start)
	}
	if _, err := GetPeriod("5y"); err == nil {
		t.Fatalf("expected error for unknown period")
	}
}

func TestRegisterPeriod(t *testing.T) {
	RegisterPeriod("2y", MonthsBack(24))
	defer func() {
		periodMu.Lock()
		delete(periodStrategies, "2y")
		periodMu.Unlock()
	}()

	s, err := GetPeriod("2y")
	if err != nil {
		t.Fatalf("registered period not found: %v", err)
	}
	if r := s.Range(core.NewDate(2025, 5, 20)); !r.Start.SameDay(core.NewDate(2023, 5, 1)) {
		t.Fatalf("unexpected start %s", r.Start)
	}
}
