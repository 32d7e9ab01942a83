package schedule

import (
	"context"
	"time"

	"voicedesk/models"
	"voicedesk/services/calendar"
)

// Verdict classifies a requested start against business hours and the
// calendar.
type Verdict int

const (
	Ok Verdict = iota
	ClosedDay
	OutsideHours
	Conflict
)

// Hours validates appointment starts and enumerates open slots. OpenHour
// and CloseHour bound the working day; ClosedWeekday is the weekly closing
// day. The appointment must end at or before closing.
type Hours struct {
	Loc           *time.Location
	OpenHour      int
	CloseHour     int
	ClosedWeekday time.Weekday
	StepMinutes   int
	MaxSpoken     int
	Cal           calendar.Client
}

// Check validates a start instant for a service of known duration.
// A calendar error counts as a conflict: an unverifiable slot is never
// offered as bookable.
func (h *Hours) Check(ctx context.Context, start time.Time, svc models.Service, stylist string) Verdict {
	start = start.In(h.Loc)
	if start.Weekday() == h.ClosedWeekday {
		return ClosedDay
	}
	open := time.Date(start.Year(), start.Month(), start.Day(), h.OpenHour, 0, 0, 0, h.Loc)
	closing := time.Date(start.Year(), start.Month(), start.Day(), h.CloseHour, 0, 0, 0, h.Loc)
	end := start.Add(svc.Duration())
	if start.Before(open) || !start.Before(closing) || end.After(closing) {
		return OutsideHours
	}
	busy, err := h.Cal.Busy(ctx, start, svc.Duration(), stylist)
	if err != nil || busy {
		return Conflict
	}
	return Ok
}

// ListOpenSlots walks the day on the step interval and returns starts that
// are in the future, fit before closing, and don't collide with a busy
// interval. The list is capped at MaxSpoken so it stays speakable. A
// calendar failure yields no slots rather than unverified ones.
func (h *Hours) ListOpenSlots(ctx context.Context, day time.Time, svc models.Service, stylist string, now time.Time) []time.Time {
	day = day.In(h.Loc)
	if day.Weekday() == h.ClosedWeekday {
		return nil
	}
	open := time.Date(day.Year(), day.Month(), day.Day(), h.OpenHour, 0, 0, 0, h.Loc)
	closing := time.Date(day.Year(), day.Month(), day.Day(), h.CloseHour, 0, 0, 0, h.Loc)
	busy, err := h.Cal.BusyIntervals(ctx, open, closing, stylist)
	if err != nil {
		return nil
	}
	step := time.Duration(h.StepMinutes) * time.Minute
	dur := svc.Duration()
	var slots []time.Time
	for s := open; !s.Add(dur).After(closing); s = s.Add(step) {
		if !s.After(now) {
			continue
		}
		if overlapsAny(busy, s, s.Add(dur)) {
			continue
		}
		slots = append(slots, s)
		if len(slots) >= h.MaxSpoken {
			break
		}
	}
	return slots
}

func overlapsAny(busy []calendar.Interval, start, end time.Time) bool {
	for _, iv := range busy {
		if iv.Overlaps(start, end) {
			return true
		}
	}
	return false
}
