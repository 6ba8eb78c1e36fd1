package engagement

import (
	"context"
	"log/slog"
	"time"
)

// SelectorStore is the storage surface the selector needs.
type SelectorStore interface {
	// OptimalTimes returns the user's ranked slot table, or an empty slice
	// if the user has none.
	OptimalTimes(ctx context.Context, userID uint) ([]Slot, error)
}

// Selector picks the next publish time for a user from their ranked slot
// table. The result is a pure function of the table and the supplied now, so
// repeated calls with the same inputs return the same timestamp.
type Selector struct {
	store  SelectorStore
	logger *slog.Logger
}

// NewSelector creates a Selector.
func NewSelector(store SelectorStore, logger *slog.Logger) *Selector {
	return &Selector{store: store, logger: logger}
}

// NextTime returns the next future publish time for the user. Ranked slots
// are tried in order; a slot is skipped only when it falls on the current day
// at or before the current hour. If every slot is in the past today, the
// top-ranked slot is pushed into the following week. Users without a slot
// table (or a failing lookup) get the default policy instead.
func (s *Selector) NextTime(ctx context.Context, userID uint, now time.Time) time.Time {
	slots, err := s.store.OptimalTimes(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load optimal times, using default schedule",
			"user_id", userID,
			"error", err.Error(),
		)
		return DefaultTime(now)
	}
	if len(slots) == 0 {
		return DefaultTime(now)
	}

	currentDay := int(now.Weekday())
	currentHour := now.Hour()

	for _, slot := range slots {
		daysAhead := (slot.Weekday - currentDay + 7) % 7
		if daysAhead == 0 && slot.Hour <= currentHour {
			continue
		}
		return slotTime(now, daysAhead, slot.Hour)
	}

	// Everything ranked falls earlier today; reuse the best slot next week.
	top := slots[0]
	daysAhead := (top.Weekday - currentDay + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return slotTime(now, daysAhead, top.Hour)
}

// DefaultTime is the fallback policy when no slot table exists: tomorrow at
// 10:00, shifted to Monday when tomorrow lands on a weekend.
func DefaultTime(now time.Time) time.Time {
	next := slotTime(now, 1, 10)
	switch next.Weekday() {
	case time.Saturday:
		next = next.AddDate(0, 0, 2)
	case time.Sunday:
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func slotTime(now time.Time, daysAhead, hour int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+daysAhead, hour, 0, 0, 0, now.Location())
}
