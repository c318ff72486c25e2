package dbtime

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/configs"
)

// set by the school scope middleware
const LocSchoolLoc = "school_loc"

// LoadLocation falls back to APP_TIMEZONE, then UTC.
func LoadLocation(name string) *time.Location {
	for _, n := range []string{strings.TrimSpace(name), configs.AppTimezone} {
		if n == "" {
			continue
		}
		if loc, err := time.LoadLocation(n); err == nil {
			return loc
		}
	}
	return time.UTC
}

func GetSchoolLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return LoadLocation("")
	}
	if loc, ok := c.Locals(LocSchoolLoc).(*time.Location); ok && loc != nil {
		return loc
	}
	loc := LoadLocation("")
	c.Locals(LocSchoolLoc, loc)
	return loc
}

func NowInSchool(c *fiber.Ctx) time.Time {
	return time.Now().In(GetSchoolLocation(c))
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TodayIn is midnight today in loc.
func TodayIn(loc *time.Location, now time.Time) time.Time {
	return DateOf(now.In(loc))
}

// EndOfDay is 23:59:59.999 of t's date.
func EndOfDay(t time.Time) time.Time {
	return DateOf(t).Add(24*time.Hour - time.Millisecond)
}

// ParseDate accepts YYYY-MM-DD in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
}

// MonthRange returns the first day and the last day of "YYYY-MM".
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	first, err := time.ParseInLocation("2006-01", strings.TrimSpace(month), loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}

// ParseWeekday accepts "monday", "Mon", "MONDAY".
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return 0, false
}

// CivilDate is t's calendar date in its own location, as UTC midnight.
// DATE columns are written with this so the session time zone never shifts the day.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
