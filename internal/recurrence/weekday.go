package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Weekday is the symbolic day a class session repeats on.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// dayIndex maps symbolic weekdays onto day-of-week numbers (Sunday == 0).
var dayIndex = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// ErrInvalidWeekday indicates an unknown weekday value.
var ErrInvalidWeekday = errors.New("recurrence: invalid weekday")

// ErrInvalidClock indicates a wall-clock value that is not HH:mm.
var ErrInvalidClock = errors.New("recurrence: clock time must be HH:mm")

// ParseWeekday accepts a symbolic weekday in any letter case.
func ParseWeekday(value string) (Weekday, error) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := dayIndex[day]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, value)
	}
	return day, nil
}

// Index returns the day-of-week number for the weekday.
func (w Weekday) Index() time.Weekday {
	return dayIndex[w]
}

// Valid reports whether w is one of the seven known values.
func (w Weekday) Valid() bool {
	_, ok := dayIndex[w]
	return ok
}

// WeekdayOf converts a day-of-week number into its symbolic weekday.
func WeekdayOf(day time.Weekday) Weekday {
	for symbol, index := range dayIndex {
		if index == day {
			return symbol
		}
	}
	return ""
}

// ClockTime is a wall-clock time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses an HH:mm value.
func ParseClock(value string) (ClockTime, error) {
	ts, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return ClockTime{Hour: ts.Hour(), Minute: ts.Minute()}, nil
}

// MustParseClock is ParseClock for constant inputs.
func MustParseClock(value string) ClockTime {
	c, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Minutes returns the number of minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// String formats the clock as HH:mm.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock time on the UTC calendar day of day, with zero seconds.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.UTC().Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, time.UTC)
}
