package availability

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// minuteOfDay is minutes since local midnight.
type minuteOfDay int

// window is a daily open interval [open, close) in store-local minutes.
// A zero window means closed all day.
type window struct {
	open  minuteOfDay
	close minuteOfDay
}

func (w window) contains(m minuteOfDay) bool {
	return m >= w.open && m < w.close
}

func (w window) zero() bool { return w.open == 0 && w.close == 0 }

// Schedule is the weekly opening schedule evaluated in the store's timezone.
type Schedule struct {
	loc     *time.Location
	windows [7]window // indexed by time.Weekday
}

// ScheduleConfig describes the weekly schedule in config terms: one daily
// window in "HH:MM" store-local time plus a list of fully closed weekdays.
type ScheduleConfig struct {
	Timezone   string
	OpensAt    string
	ClosesAt   string
	ClosedDays []string
}

// NewSchedule builds a Schedule from config. Opening must precede closing
// within one day; overnight windows are not supported.
func NewSchedule(cfg ScheduleConfig) (Schedule, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Schedule{}, errors.Wrapf(err, "load timezone %q", cfg.Timezone)
	}

	open, err := parseClock(cfg.OpensAt)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "opens_at")
	}
	closeAt, err := parseClock(cfg.ClosesAt)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "closes_at")
	}
	if closeAt <= open {
		return Schedule{}, errors.Errorf("closing time %s must be after opening time %s", cfg.ClosesAt, cfg.OpensAt)
	}

	closed := make(map[time.Weekday]bool, len(cfg.ClosedDays))
	for _, name := range cfg.ClosedDays {
		day, err := parseWeekday(name)
		if err != nil {
			return Schedule{}, err
		}
		closed[day] = true
	}

	var s Schedule
	s.loc = loc
	for day := time.Sunday; day <= time.Saturday; day++ {
		if closed[day] {
			continue
		}
		s.windows[day] = window{open: open, close: closeAt}
	}
	return s, nil
}

// Location returns the timezone the schedule is evaluated in. Callers that
// interpret calendar dates (e.g. the dashboard's per-day query) must use the
// same zone so day boundaries line up with the storefront's.
func (s Schedule) Location() *time.Location {
	return s.loc
}

// Evaluate returns the schedule-derived availability at t.
func (s Schedule) Evaluate(t time.Time) Status {
	local := t.In(s.loc)
	w := s.windows[local.Weekday()]
	m := minuteOfDay(local.Hour()*60 + local.Minute())

	switch {
	case w.zero():
		return Status{Message: fmt.Sprintf("Closed on %ss", local.Weekday())}
	case m < w.open:
		return Status{Message: fmt.Sprintf("Opens at %s", formatClock(w.open))}
	case w.contains(m):
		return Status{IsOpen: true, Message: fmt.Sprintf("Open until %s", formatClock(w.close))}
	default:
		return Status{Message: fmt.Sprintf("Closed for the day, opens at %s", formatClock(w.open))}
	}
}

func parseClock(s string) (minuteOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, errors.Errorf("invalid clock time %q, want HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errors.Errorf("clock time %q out of range", s)
	}
	return minuteOfDay(h*60 + m), nil
}

func formatClock(m minuteOfDay) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func parseWeekday(name string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if name == day.String() {
			return day, nil
		}
	}
	return 0, errors.Errorf("unknown weekday %q", name)
}
