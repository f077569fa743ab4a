// Package status derives an event's lifecycle status from its stored date and
// time string.
package status

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gdg-garage/events-api/internal/models"
)

// DefaultDuration is the window assumed when an event has a start time only.
const DefaultDuration = 2 * time.Hour

type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger.With("component", "status")}
}

// Resolve classifies an event using the default logger.
func Resolve(date, clock string, now time.Time) models.Status {
	return NewResolver(nil).Resolve(date, clock, now)
}

// Resolve classifies an event dated date (YYYY-MM-DD) with time string clock
// relative to now. Days are compared in now's location. A same-day event whose
// time cannot be parsed is reported as ongoing.
func (r *Resolver) Resolve(date, clock string, now time.Time) models.Status {
	loc := now.Location()
	day, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		r.logger.Warn("unparseable event date, assuming ongoing", "date", date, "error", err)
		return models.StatusOngoing
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch {
	case day.Before(today):
		return models.StatusPast
	case day.After(today):
		return models.StatusUpcoming
	}

	clock = strings.TrimSpace(clock)
	if clock == "" {
		r.logger.Warn("empty event time, assuming ongoing", "date", date)
		return models.StatusOngoing
	}

	startSeg, endSeg, isRange := splitRange(clock)
	start, ok := parseClock(today, startSeg)
	if !ok {
		r.logger.Warn("unparseable event start time, assuming ongoing", "date", date, "time", clock)
		return models.StatusOngoing
	}

	end := start.Add(DefaultDuration)
	if isRange {
		// A date-qualified end is still anchored to today.
		end, ok = parseClock(today, endSeg)
		if !ok {
			r.logger.Warn("unparseable event end time, assuming ongoing", "date", date, "time", clock)
			return models.StatusOngoing
		}
	}

	switch {
	case now.After(end):
		return models.StatusPast
	case now.Before(start):
		return models.StatusUpcoming
	default:
		return models.StatusOngoing
	}
}

func splitRange(clock string) (start, end string, ok bool) {
	if s, e, found := strings.Cut(clock, " - "); found {
		return s, e, true
	}
	return strings.Cut(clock, "-")
}

// parseClock reads "HH:MM" from segment, using the token after the last space
// when the segment is date-qualified.
func parseClock(day time.Time, segment string) (time.Time, bool) {
	segment = strings.TrimSpace(segment)
	if i := strings.LastIndex(segment, " "); i >= 0 {
		segment = segment[i+1:]
	}
	hh, mm, found := strings.Cut(segment, ":")
	if !found {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), true
}
