// Package datetime provides calendar date parsing and arithmetic for bill
// periods.
package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
)

const (
	// DateLayout is the canonical YYYY-MM-DD format.
	DateLayout = constants.DateLayout
)

var (
	reDayFirst  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2}|\d{4})$`)
	reYearFirst = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	reMonthName = regexp.MustCompile(`^(\d{1,2})[\s-]+([A-Za-z]{3,})[\s-]+(\d{2,4})$`)
)

var monthPrefixes = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// CalendarDate is a date without time of day or zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate builds a date from components. Out-of-range days and months
// roll over the way a calendar does, e.g. 31 February becomes 3 March.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// String formats the date as zero-padded YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC on the date.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseBillDate recognizes the date tokens found on bills. Formats are tried
// in order: day-first numeric, year-first numeric, then day with month name.
// Two-digit years are taken as 20YY.
func ParseBillDate(token string) (CalendarDate, bool) {
	s := strings.TrimSpace(token)

	if m := reDayFirst.FindStringSubmatch(s); m != nil {
		return NewCalendarDate(expandYear(atoi(m[3])), time.Month(atoi(m[2])), atoi(m[1])), true
	}

	if m := reYearFirst.FindStringSubmatch(s); m != nil {
		return NewCalendarDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3])), true
	}

	if m := reMonthName.FindStringSubmatch(s); m != nil {
		month, ok := monthPrefixes[strings.ToLower(m[2][:3])]
		if !ok {
			return CalendarDate{}, false
		}
		return NewCalendarDate(expandYear(atoi(m[3])), month, atoi(m[1])), true
	}

	return CalendarDate{}, false
}

// NormalizeBillDate returns the canonical form of token, or "" when it is not
// a recognized date.
func NormalizeBillDate(token string) string {
	d, ok := ParseBillDate(token)
	if !ok {
		return ""
	}
	return d.String()
}

// ParseISODate parses a canonical YYYY-MM-DD string.
func ParseISODate(s string) (CalendarDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, err
	}
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DaysBetween returns the number of whole days from a to b. It is negative
// when b is before a.
func DaysBetween(a, b CalendarDate) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

func expandYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

// atoi is only called on regexp-validated digit runs.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
