package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
)

const minutesPerDay = 24 * 60

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// CalendarDate strips the clock from t, keeping the wall-clock date t shows
// in its own location, and pins the result to midnight UTC. All day
// arithmetic goes through this so DST shifts never change a day count.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDate(t), nil
}

// FormatDate renders the calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return CalendarDate(t).Format(constants.DateFormat)
}

// DaysBetween returns the whole number of calendar days from `from` to `to`.
// The result is negative when `to` is earlier.
func DaysBetween(from, to time.Time) int {
	return int(CalendarDate(to).Sub(CalendarDate(from)).Hours() / 24)
}

// DaysBetweenStrings is DaysBetween over YYYY-MM-DD strings.
func DaysBetweenStrings(from, to string) (int, error) {
	f, err := ParseDate(from)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", from, err)
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", to, err)
	}
	return DaysBetween(f, t), nil
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ParseTimeToMinutes parses a time string (HH:MM) and returns the number of minutes from midnight.
func ParseTimeToMinutes(timeStr string) (int, error) {
	t, err := ParseTime(timeStr)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatMinutes renders minutes since midnight as HH:MM, wrapping past 24h.
func FormatMinutes(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}

// ValidateDateFormat checks if the string matches the standard date format.
func ValidateDateFormat(dateStr string) bool {
	_, err := ParseDate(dateStr)
	return err == nil
}
