// internal/app/system/habitfilter/habitfilter.go

// Package habitfilter selects the subset of tidy records the dashboard is
// currently looking at (date range, categories, habits) and parses that
// selection from request query parameters.
package habitfilter

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/stratahabits/internal/domain/models"
)

// DateLayout is the query-string date format.
const DateLayout = "2006-01-02"

// Filter is an inclusive date range plus category and habit allow-lists.
// Zero-valued fields match everything.
type Filter struct {
	Start  *time.Time
	End    *time.Time
	Types  []string
	Habits []string
}

// IsZero reports whether the filter matches every record.
func (f Filter) IsZero() bool {
	return f.Start == nil && f.End == nil && len(f.Types) == 0 && len(f.Habits) == 0
}

// Match reports whether r passes the filter.
func (f Filter) Match(r models.TidyRecord) bool {
	if f.Start != nil && r.Date.Before(*f.Start) {
		return false
	}
	if f.End != nil && r.Date.After(*f.End) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, r.Type) {
		return false
	}
	if len(f.Habits) > 0 && !slices.Contains(f.Habits, r.Habit) {
		return false
	}
	return true
}

// Apply returns the records that pass the filter. The input is not modified;
// a zero filter returns records unchanged.
func (f Filter) Apply(records []models.TidyRecord) []models.TidyRecord {
	if f.IsZero() {
		return records
	}
	out := make([]models.TidyRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Query encodes the filter as query parameters understood by Parse.
func (f Filter) Query() url.Values {
	v := url.Values{}
	if f.Start != nil {
		v.Set("start", f.Start.Format(DateLayout))
	}
	if f.End != nil {
		v.Set("end", f.End.Format(DateLayout))
	}
	for _, t := range f.Types {
		v.Add("type", t)
	}
	for _, h := range f.Habits {
		v.Add("habit", h)
	}
	return v
}

// Parse reads start, end, type and habit parameters. Each type or habit is its
// own repeated parameter; values are taken whole because habit names are free
// text and may contain commas.
func Parse(q url.Values) (Filter, error) {
	var f Filter
	if s := strings.TrimSpace(q.Get("start")); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", s)
		}
		f.Start = &t
	}
	if s := strings.TrimSpace(q.Get("end")); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", s)
		}
		f.End = &t
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return Filter{}, fmt.Errorf("end date %s is before start date %s",
			f.End.Format(DateLayout), f.Start.Format(DateLayout))
	}
	f.Types = cleanValues(q["type"])
	f.Habits = cleanValues(q["habit"])
	return f, nil
}

func cleanValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Options lists the values a filter can select from.
type Options struct {
	Types     []string   `json:"types"`
	Habits    []string   `json:"habits"`
	FirstDate *time.Time `json:"first_date,omitempty"`
	LastDate  *time.Time `json:"last_date,omitempty"`
}

// OptionsFor returns the distinct categories and habits (sorted) and the date
// bounds present in records.
func OptionsFor(records []models.TidyRecord) Options {
	types := map[string]struct{}{}
	habits := map[string]struct{}{}
	var opts Options
	for _, r := range records {
		types[r.Type] = struct{}{}
		habits[r.Habit] = struct{}{}
		date := r.Date
		if opts.FirstDate == nil || date.Before(*opts.FirstDate) {
			opts.FirstDate = &date
		}
		if opts.LastDate == nil || date.After(*opts.LastDate) {
			opts.LastDate = &date
		}
	}
	opts.Types = sortedKeys(types)
	opts.Habits = sortedKeys(habits)
	return opts
}

// DistinctHabits counts the distinct habit names in records.
func DistinctHabits(records []models.TidyRecord) int {
	seen := map[string]struct{}{}
	for _, r := range records {
		seen[r.Habit] = struct{}{}
	}
	return len(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
