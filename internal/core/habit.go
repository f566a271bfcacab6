package core

// HabitState is the part of a habit the completion toggle acts on.
type HabitState struct {
	CurrentStreak   int
	BestStreak      int
	LastCompletedAt *Date
}

// State snapshots the streak fields of the habit.
func (h FinancialHabit) State() HabitState {
	s := HabitState{CurrentStreak: h.CurrentStreak, BestStreak: h.BestStreak}
	if h.LastCompletedAt != nil {
		last := *h.LastCompletedAt
		s.LastCompletedAt = &last
	}
	return s
}

// WithState returns a copy of the habit carrying s.
func (h FinancialHabit) WithState(s HabitState) FinancialHabit {
	h.CurrentStreak = s.CurrentStreak
	h.BestStreak = s.BestStreak
	h.LastCompletedAt = s.LastCompletedAt
	return h
}

// CompletedOn reports whether the last completion fell on day.
func (s HabitState) CompletedOn(day Date) bool {
	return s.LastCompletedAt != nil && s.LastCompletedAt.SameDay(day)
}

// Equal compares two snapshots field by field.
func (s HabitState) Equal(o HabitState) bool {
	if s.CurrentStreak != o.CurrentStreak || s.BestStreak != o.BestStreak {
		return false
	}
	if s.LastCompletedAt == nil || o.LastCompletedAt == nil {
		return s.LastCompletedAt == nil && o.LastCompletedAt == nil
	}
	return s.LastCompletedAt.SameDay(*o.LastCompletedAt)
}

// IsCompletedToday reports whether the habit was completed on today.
func (h FinancialHabit) IsCompletedToday(today Date) bool {
	return h.State().CompletedOn(today)
}

// Toggle computes the next streak state from a snapshot.
//
// Completing increments the streak, raises the best streak if needed and stamps
// today. Completing twice on the same day is rejected with
// ErrAlreadyCompletedToday. Undoing decrements the streak (never below zero) and
// clears the completion date once the streak reaches zero; the best streak is
// never lowered. Missed days do not reset the streak.
func Toggle(prev HabitState, markCompleted bool, today Date) (HabitState, error) {
	next := prev
	if markCompleted {
		if prev.CompletedOn(today) {
			return prev, invalid("completed", ErrAlreadyCompletedToday)
		}
		next.CurrentStreak = prev.CurrentStreak + 1
		if next.CurrentStreak > prev.BestStreak {
			next.BestStreak = next.CurrentStreak
		}
		day := today
		next.LastCompletedAt = &day
		return next, nil
	}

	next.CurrentStreak = prev.CurrentStreak - 1
	if next.CurrentStreak < 0 {
		next.CurrentStreak = 0
	}
	if next.CurrentStreak == 0 {
		next.LastCompletedAt = nil
	}
	return next, nil
}
