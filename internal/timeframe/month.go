// Package timeframe handles the calendar-month windows the monthly
// reports are fetched and summarized over.
package timeframe

import (
	"fmt"
	"regexp"
	"time"
)

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Previous returns the month before m.
func (m Month) Previous() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return MonthOf(t)
}

// Next returns the month after m.
func (m Month) Next() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return MonthOf(t)
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Range returns the first and last day of the month as YYYY-MM-DD strings.
func (m Month) Range() (first, last string) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

// Label renders the month for report headings, e.g. "March 2025".
func (m Month) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// String renders the month in YYYY-MM form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Iterate returns the months from from to to, inclusive. An empty slice
// means the range is inverted.
func Iterate(from, to Month) []Month {
	var months []Month
	for m := from; !to.Before(m); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// monthlyFileRe matches the monthly top-pages export file names,
// e.g. "top-pages-2025-03-01-to-2025-03-31.tab".
var monthlyFileRe = regexp.MustCompile(`^top-pages-(\d{4})-(\d{2})-\d{2}-to-\d{4}-\d{2}-\d{2}\.tab$`)

// MonthFromFilename extracts the month from a monthly export file name.
// The second return is false for files that are not monthly exports,
// such as rolling-window pulls.
func MonthFromFilename(name string) (Month, bool) {
	match := monthlyFileRe.FindStringSubmatch(name)
	if match == nil {
		return Month{}, false
	}
	t, err := time.Parse("2006-01", match[1]+"-"+match[2])
	if err != nil {
		return Month{}, false
	}
	return MonthOf(t), true
}
