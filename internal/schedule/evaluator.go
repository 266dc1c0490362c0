// Package schedule evaluates cron-style opening rules for parking lots.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campark/internal/model"
)

// ErrMalformedSchedule marks a cron rule that cannot be interpreted. Callers
// inside the evaluator treat such rules as "not open" rather than failing the
// whole schedule.
var ErrMalformedSchedule = errors.New("malformed schedule rule")

const minutesPerDay = 24 * 60

// Window is a parsed ScheduleRule: an open/close pair in minutes since
// midnight plus the set of weekdays (0=Sunday) the rule applies to.
type Window struct {
	OpenMinute  int
	CloseMinute int
	Days        map[int]bool
}

// ParseRule parses a rule's open/close cron pair. The day-of-week set is taken
// from the open expression; field order is minute-first.
func ParseRule(rule model.ScheduleRule) (Window, error) {
	openMin, openParts, err := parseCronTime(rule.CronOpen)
	if err != nil {
		return Window{}, err
	}
	closeMin, _, err := parseCronTime(rule.CronClose)
	if err != nil {
		return Window{}, err
	}
	days, err := ParseDays(openParts[4])
	if err != nil {
		return Window{}, err
	}
	return Window{OpenMinute: openMin, CloseMinute: closeMin, Days: days}, nil
}

func parseCronTime(expr string) (minuteOfDay int, fields []string, err error) {
	fields = strings.Fields(expr)
	if len(fields) < 5 {
		return 0, nil, fmt.Errorf("%w: %q has %d fields", ErrMalformedSchedule, expr, len(fields))
	}
	minute, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: minute field %q", ErrMalformedSchedule, fields[0])
	}
	hour, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: hour field %q", ErrMalformedSchedule, fields[1])
	}
	return hour*60 + minute, fields, nil
}

// ParseDays expands a cron day-of-week field into a set of weekday numbers
// 0..6. Supports "*", comma lists and inclusive ranges; ranges wrap modulo 7
// ("5-1" covers Fri,Sat,Sun,Mon) with a hard bound of 8 steps so malformed
// input cannot loop forever.
func ParseDays(field string) (map[int]bool, error) {
	days := make(map[int]bool, 7)
	if field == "*" {
		for d := 0; d < 7; d++ {
			days[d] = true
		}
		return days, nil
	}
	for _, group := range strings.Split(field, ",") {
		if from, to, ok := strings.Cut(group, "-"); ok {
			start, err := strconv.Atoi(from)
			if err != nil {
				return nil, fmt.Errorf("%w: day range %q", ErrMalformedSchedule, group)
			}
			end, err := strconv.Atoi(to)
			if err != nil {
				return nil, fmt.Errorf("%w: day range %q", ErrMalformedSchedule, group)
			}
			cur := ((start % 7) + 7) % 7
			end = ((end % 7) + 7) % 7
			for steps := 0; cur != end && steps < 8; steps++ {
				days[cur] = true
				cur = (cur + 1) % 7
			}
			days[end] = true
		} else {
			d, err := strconv.Atoi(group)
			if err != nil {
				return nil, fmt.Errorf("%w: day %q", ErrMalformedSchedule, group)
			}
			days[((d%7)+7)%7] = true
		}
	}
	return days, nil
}

// ActiveOn reports whether the window applies on the given weekday.
func (w Window) ActiveOn(weekday time.Weekday) bool {
	return w.Days[int(weekday)]
}

// OpenAt reports whether the window is open at the given instant. A close
// earlier than the open is treated as crossing midnight.
func (w Window) OpenAt(t time.Time) bool {
	if !w.ActiveOn(t.Weekday()) {
		return false
	}
	now := t.Hour()*60 + t.Minute()
	close := w.CloseMinute
	if close < w.OpenMinute {
		close += minutesPerDay
	}
	return now >= w.OpenMinute && now <= close
}

// IsOpenAt reports whether a lot with the given rules is open at t. Zero rules
// means the lot never closes. Overlapping rules resolve to the first match in
// declared order; malformed rules are skipped.
func IsOpenAt(rules []model.ScheduleRule, t time.Time) bool {
	if len(rules) == 0 {
		return true
	}
	for _, rule := range rules {
		w, err := ParseRule(rule)
		if err != nil {
			continue
		}
		if w.OpenAt(t) {
			return true
		}
	}
	return false
}

// HoursFor returns the opening window for the given date: the first rule, in
// declared order, active on that weekday. Zero rules means open the full day.
// ok is false when no rule covers the date.
func HoursFor(rules []model.ScheduleRule, date time.Time) (openMinute, closeMinute int, ok bool) {
	if len(rules) == 0 {
		return 0, minutesPerDay - 1, true
	}
	for _, rule := range rules {
		w, err := ParseRule(rule)
		if err != nil {
			continue
		}
		if w.ActiveOn(date.Weekday()) {
			return w.OpenMinute, w.CloseMinute, true
		}
	}
	return 0, 0, false
}

// Status derives the lot status for the given instant and live availability.
// Closed wins over occupancy; a lot under 10% availability reads as low.
func Status(lot *model.Lot, vt model.VehicleType, now time.Time) model.LotStatus {
	if !IsOpenAt(lot.Schedule, now) {
		return model.StatusClosed
	}
	available := lot.Available.For(vt)
	capacity := lot.Capacity.For(vt)
	switch {
	case available <= 0:
		return model.StatusFull
	case capacity > 0 && float64(available)/float64(capacity) < 0.1:
		return model.StatusLow
	default:
		return model.StatusAvailable
	}
}

// DayHours is one row in the weekly opening-hours view.
type DayHours struct {
	Day     time.Weekday
	Label   string
	IsToday bool
	Open    bool
}

// WeekHours lists opening hours for seven days starting at now's weekday.
func WeekHours(rules []model.ScheduleRule, now time.Time) []DayHours {
	week := make([]DayHours, 0, 7)
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, i)
		open, close, ok := HoursFor(rules, date)
		row := DayHours{Day: date.Weekday(), IsToday: i == 0, Open: ok}
		if ok {
			row.Label = fmt.Sprintf("%02d:%02d - %02d:%02d", open/60, open%60, close/60, close%60)
		} else {
			row.Label = "Closed"
		}
		week = append(week, row)
	}
	return week
}

// HoursLabel renders the opening window for a date as shown in day headers.
func HoursLabel(rules []model.ScheduleRule, date time.Time) string {
	if len(rules) == 0 {
		return "Open 24 hours"
	}
	open, close, ok := HoursFor(rules, date)
	if !ok {
		return "Closed"
	}
	return fmt.Sprintf("Open %02d:%02d | Close %02d:%02d", open/60, open%60, close/60, close%60)
}
