// internal/app/system/tidy/dates.go
package tidy

import (
	"regexp"
	"strings"
	"time"
)

// trailingClock matches a time-of-day suffix such as " 00:00" or " 13:45:10".
// Day labels exported from spreadsheets sometimes carry one; it is discarded.
var trailingClock = regexp.MustCompile(`[ T]\d{1,2}:\d{2}(:\d{2})?$`)

// Day-first layouts with an explicit year. ISO forms are unambiguous and are
// listed with them.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
	"2-1-06",
	"2.1.2006",
	"2.1.06",
	"2006-1-2",
	"2006/1/2",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Mon 2 Jan 2006",
	"Monday 2 January 2006",
}

// Layouts without a year; the parser's default year is applied.
var yearlessLayouts = []string{
	"2/1",
	"2-1",
	"2.1",
	"2 Jan",
	"2 January",
	"2-Jan",
	"Jan 2",
	"January 2",
}

// Month-first fallbacks, only tried when the day-first reading is impossible
// (for example "01/13/2025", where 13 cannot be a month).
var monthFirstFallbacks = []string{
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
}

var yearlessFallbacks = []string{
	"1/2",
	"1-2",
}

// DateParser turns spreadsheet day labels into calendar dates, reading
// ambiguous numeric dates day-first.
type DateParser struct {
	defaultYear int
}

// NewDateParser returns a parser that places year-less labels in defaultYear.
func NewDateParser(defaultYear int) DateParser {
	return DateParser{defaultYear: defaultYear}
}

// DefaultYear is the year assigned to labels that carry none.
func (p DateParser) DefaultYear() int {
	return p.defaultYear
}

// Parse returns the date at UTC midnight. ok is false when the label is not a
// recognizable date.
func (p DateParser) Parse(label string) (date time.Time, ok bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return time.Time{}, false
	}
	s = strings.TrimSpace(trailingClock.ReplaceAllString(s, ""))
	s = strings.Join(strings.Fields(s), " ")

	if t, ok := parseAny(s, dayFirstLayouts); ok {
		return t, true
	}
	if t, ok := parseAny(s, yearlessLayouts); ok {
		return p.withDefaultYear(t)
	}
	if t, ok := parseAny(s, monthFirstFallbacks); ok {
		return t, true
	}
	if t, ok := parseAny(s, yearlessFallbacks); ok {
		return p.withDefaultYear(t)
	}
	return time.Time{}, false
}

func parseAny(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// withDefaultYear moves a year-less date into the default year, rejecting
// 29 February when that year is not a leap year.
func (p DateParser) withDefaultYear(t time.Time) (time.Time, bool) {
	d := time.Date(p.defaultYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if d.Month() != t.Month() || d.Day() != t.Day() {
		return time.Time{}, false
	}
	return d, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
