package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type RecurrenceKind string

const (
	KindDaily         RecurrenceKind = "daily"
	KindSpecificDays  RecurrenceKind = "specificDays"
	KindEveryOtherDay RecurrenceKind = "everyOtherDay"
	KindWeekly        RecurrenceKind = "weekly"
	KindMonthly       RecurrenceKind = "monthly"
)

// RecurrenceRule is a closed set of repeat patterns. Each variant carries
// only the fields its kind uses; the unexported method keeps the set sealed
// to this package.
type RecurrenceRule interface {
	Kind() RecurrenceKind
	isRecurrenceRule()
}

// Daily repeats every calendar day.
type Daily struct{}

// SpecificDays repeats on the listed weekdays. An empty list means every day.
type SpecificDays struct {
	Days []time.Weekday
}

// EveryOtherDay repeats on even day offsets from StartDate (YYYY-MM-DD).
type EveryOtherDay struct {
	StartDate string
}

// Weekly repeats on the listed weekdays, or on StartDate's weekday when
// no days are listed (records written before multi-day weekly existed).
type Weekly struct {
	Days      []time.Weekday
	StartDate string
}

// Monthly repeats on DayOfMonth (1-31). Zero means the 1st. There is no
// clamping: 31 never matches a 30-day month.
type Monthly struct {
	DayOfMonth int
}

func (Daily) Kind() RecurrenceKind         { return KindDaily }
func (SpecificDays) Kind() RecurrenceKind  { return KindSpecificDays }
func (EveryOtherDay) Kind() RecurrenceKind { return KindEveryOtherDay }
func (Weekly) Kind() RecurrenceKind        { return KindWeekly }
func (Monthly) Kind() RecurrenceKind       { return KindMonthly }

func (Daily) isRecurrenceRule()         {}
func (SpecificDays) isRecurrenceRule()  {}
func (EveryOtherDay) isRecurrenceRule() {}
func (Weekly) isRecurrenceRule()        {}
func (Monthly) isRecurrenceRule()       {}

// Recurrence wraps a rule so it can be persisted as a flat JSON object.
type Recurrence struct {
	Rule RecurrenceRule
}

// NewRecurrence is a convenience for building a *Recurrence from a rule.
func NewRecurrence(rule RecurrenceRule) *Recurrence {
	return &Recurrence{Rule: rule}
}

type recurrenceWire struct {
	Kind       RecurrenceKind `json:"kind"`
	DaysOfWeek []int          `json:"daysOfWeek,omitempty"`
	DayOfMonth int            `json:"dayOfMonth,omitempty"`
	StartDate  string         `json:"startDate,omitempty"`
}

func (r Recurrence) MarshalJSON() ([]byte, error) {
	var w recurrenceWire
	switch rule := r.Rule.(type) {
	case nil, Daily:
		w.Kind = KindDaily
	case SpecificDays:
		w.Kind = KindSpecificDays
		w.DaysOfWeek = weekdaysToInts(rule.Days)
	case EveryOtherDay:
		w.Kind = KindEveryOtherDay
		w.StartDate = rule.StartDate
	case Weekly:
		w.Kind = KindWeekly
		w.DaysOfWeek = weekdaysToInts(rule.Days)
		w.StartDate = rule.StartDate
	case Monthly:
		w.Kind = KindMonthly
		w.DayOfMonth = rule.DayOfMonth
	default:
		return nil, fmt.Errorf("unsupported recurrence rule %T", r.Rule)
	}
	return json.Marshal(w)
}

func (r *Recurrence) UnmarshalJSON(data []byte) error {
	var w recurrenceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	days, err := intsToWeekdays(w.DaysOfWeek)
	if err != nil {
		return err
	}
	switch w.Kind {
	case KindDaily, "":
		r.Rule = Daily{}
	case KindSpecificDays:
		r.Rule = SpecificDays{Days: days}
	case KindEveryOtherDay:
		r.Rule = EveryOtherDay{StartDate: w.StartDate}
	case KindWeekly:
		r.Rule = Weekly{Days: days, StartDate: w.StartDate}
	case KindMonthly:
		if w.DayOfMonth < 0 || w.DayOfMonth > 31 {
			return fmt.Errorf("dayOfMonth out of range: %d", w.DayOfMonth)
		}
		r.Rule = Monthly{DayOfMonth: w.DayOfMonth}
	default:
		return fmt.Errorf("unknown recurrence kind %q", w.Kind)
	}
	return nil
}

func (r Recurrence) clone() Recurrence {
	switch rule := r.Rule.(type) {
	case SpecificDays:
		return Recurrence{Rule: SpecificDays{Days: append([]time.Weekday(nil), rule.Days...)}}
	case Weekly:
		return Recurrence{Rule: Weekly{Days: append([]time.Weekday(nil), rule.Days...), StartDate: rule.StartDate}}
	default:
		return r
	}
}

// FormatRecurrence formats a recurrence rule into a human-readable string
func FormatRecurrence(rule RecurrenceRule) string {
	switch r := rule.(type) {
	case nil, Daily:
		return "daily"
	case SpecificDays:
		if len(r.Days) == 0 {
			return "daily"
		}
		return "on " + formatWeekdays(r.Days)
	case EveryOtherDay:
		return fmt.Sprintf("every other day from %s", r.StartDate)
	case Weekly:
		if len(r.Days) > 0 {
			return "weekly on " + formatWeekdays(r.Days)
		}
		return fmt.Sprintf("weekly from %s", r.StartDate)
	case Monthly:
		day := r.DayOfMonth
		if day == 0 {
			day = 1
		}
		return fmt.Sprintf("monthly on day %d", day)
	default:
		return "unknown"
	}
}

func formatWeekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, wd := range days {
		names[i] = wd.String()[:3]
	}
	return strings.Join(names, ",")
}

func weekdaysToInts(days []time.Weekday) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func intsToWeekdays(days []int) ([]time.Weekday, error) {
	if len(days) == 0 {
		return nil, nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("weekday out of range: %d", d)
		}
		out[i] = time.Weekday(d)
	}
	return out, nil
}
