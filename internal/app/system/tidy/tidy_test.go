package tidy

import (
	"testing"
	"time"

	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/google/go-cmp/cmp"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func score(v float64) *float64 { return &v }

func TestTransform_SingleMonthScenario(t *testing.T) {
	tables := []models.RawMonthTable{{
		Sheet:   "jan",
		Columns: []string{"01/01", "02/01", "03/01"},
		Rows: []models.RawRow{
			{Type: "Health", Habit: "Exercise", Cells: []string{"1", "0", "-"}},
		},
	}}

	got := New(Options{DefaultYear: 2025}).Transform(tables)

	want := []models.TidyRecord{
		{Date: day(2025, time.January, 1), Type: "Health", Habit: "Exercise", Status: "1", Score: score(1), MonthName: "January", DayOfWeek: "Wednesday"},
		{Date: day(2025, time.January, 2), Type: "Health", Habit: "Exercise", Status: "0", Score: score(0), MonthName: "January", DayOfWeek: "Thursday"},
		{Date: day(2025, time.January, 3), Type: "Health", Habit: "Exercise", Status: "-", Score: nil, MonthName: "January", DayOfWeek: "Friday"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Transform() mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_EmptyInput(t *testing.T) {
	tr := New(Options{DefaultYear: 2025})

	if got := tr.Transform(nil); len(got) != 0 {
		t.Errorf("Transform(nil) returned %d records, want 0", len(got))
	}

	empty := []models.RawMonthTable{
		{Sheet: "jan"},
		{Sheet: "feb", Columns: []string{"01/02"}},
		{Sheet: "mar", Rows: []models.RawRow{{Type: "a", Habit: "b"}}},
	}
	if got := tr.Transform(empty); len(got) != 0 {
		t.Errorf("Transform(empty tables) returned %d records, want 0", len(got))
	}
}

func TestTransform_DropsBlankCellsAndTrims(t *testing.T) {
	tables := []models.RawMonthTable{{
		Columns: []string{"01/03/2025", "02/03/2025", "03/03/2025", "04/03/2025"},
		Rows: []models.RawRow{
			{Type: "Mind", Habit: "Read", Cells: []string{" 1 ", "", "   ", "0"}},
			{Type: "Mind", Habit: "Journal", Cells: []string{"1"}}, // short row
		},
	}}

	res := New(Options{DefaultYear: 2025}).TransformWithReport(tables)

	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	for _, r := range res.Records {
		if r.Status != "1" && r.Status != "0" {
			t.Errorf("status %q was not trimmed", r.Status)
		}
	}
	if res.Report.CellsSeen != 8 {
		t.Errorf("CellsSeen = %d, want 8", res.Report.CellsSeen)
	}
	if res.Report.BlankCells != 5 {
		t.Errorf("BlankCells = %d, want 5", res.Report.BlankCells)
	}
}

func TestTransform_UnparseableHeaderDropped(t *testing.T) {
	tables := []models.RawMonthTable{{
		Columns: []string{"01/01", "", "notes"},
		Rows: []models.RawRow{
			{Type: "Health", Habit: "Sleep", Cells: []string{"1", "1", "x"}},
		},
	}}

	res := New(Options{DefaultYear: 2025}).TransformWithReport(tables)

	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	if res.Report.UnparseableDates != 2 {
		t.Errorf("UnparseableDates = %d, want 2", res.Report.UnparseableDates)
	}
	if diff := cmp.Diff([]string{"", "notes"}, res.Report.UnparseableLabels); diff != "" {
		t.Errorf("UnparseableLabels mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_ScoreMapping(t *testing.T) {
	tables := []models.RawMonthTable{{
		Columns: []string{"01/01", "02/01", "03/01", "04/01", "05/01"},
		Rows: []models.RawRow{
			{Type: "T", Habit: "H", Cells: []string{"1", "0", "-", "x", "1.0"}},
		},
	}}

	got := New(Options{DefaultYear: 2025}).Transform(tables)
	if len(got) != 5 {
		t.Fatalf("got %d records, want 5", len(got))
	}

	for _, r := range got {
		switch r.Status {
		case "1":
			if r.Score == nil || *r.Score != 1.0 {
				t.Errorf("status 1 scored %v", r.Score)
			}
		case "0":
			if r.Score == nil || *r.Score != 0.0 {
				t.Errorf("status 0 scored %v", r.Score)
			}
		default:
			if r.Score != nil {
				t.Errorf("status %q scored %v, want nil", r.Status, *r.Score)
			}
		}
	}
	if got[3].Status != "x" {
		t.Errorf("unknown token not kept verbatim: %q", got[3].Status)
	}
}

func TestTransform_SortsAcrossMonthsAndFormats(t *testing.T) {
	tables := []models.RawMonthTable{
		{
			Sheet:   "feb",
			Columns: []string{"2025-02-01"},
			Rows: []models.RawRow{
				{Type: "Mind", Habit: "Read", Cells: []string{"1"}},
				{Type: "Health", Habit: "Walk", Cells: []string{"0"}},
			},
		},
		{
			Sheet:   "jan",
			Columns: []string{"31/01"},
			Rows: []models.RawRow{
				{Type: "Mind", Habit: "Write", Cells: []string{"1"}},
				{Type: "Mind", Habit: "Read", Cells: []string{"1"}},
			},
		},
	}

	got := New(Options{DefaultYear: 2025}).Transform(tables)

	type key struct {
		Date  time.Time
		Type  string
		Habit string
	}
	var keys []key
	for _, r := range got {
		keys = append(keys, key{r.Date, r.Type, r.Habit})
	}
	want := []key{
		{day(2025, time.January, 31), "Mind", "Read"},
		{day(2025, time.January, 31), "Mind", "Write"},
		{day(2025, time.February, 1), "Health", "Walk"},
		{day(2025, time.February, 1), "Mind", "Read"},
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_DuplicatesPassThrough(t *testing.T) {
	tables := []models.RawMonthTable{{
		Columns: []string{"01/01"},
		Rows: []models.RawRow{
			{Type: "Health", Habit: "Walk", Cells: []string{"1"}},
			{Type: "Health", Habit: "Walk", Cells: []string{"0"}},
		},
	}}

	got := New(Options{DefaultYear: 2025}).Transform(tables)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Stable sort keeps sheet order for identical keys.
	if got[0].Status != "1" || got[1].Status != "0" {
		t.Errorf("duplicate order = %q,%q; want 1,0", got[0].Status, got[1].Status)
	}
}

func TestTransform_Idempotent(t *testing.T) {
	tables := []models.RawMonthTable{{
		Columns: []string{"03/01", "01/01", "02/01", "bogus"},
		Rows: []models.RawRow{
			{Type: "B", Habit: "y", Cells: []string{"1", "-", "0", "1"}},
			{Type: "A", Habit: "x", Cells: []string{"0", "1", "", "1"}},
		},
	}}
	tr := New(Options{DefaultYear: 2025})

	first := tr.TransformWithReport(tables)
	second := tr.TransformWithReport(tables)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestTransform_RowCountMatchesFilledCells(t *testing.T) {
	tables := []models.RawMonthTable{
		{
			Columns: []string{"01/01", "02/01", "03/01"},
			Rows: []models.RawRow{
				{Type: "a", Habit: "1", Cells: []string{"1", "", "0"}},
				{Type: "a", Habit: "2", Cells: []string{"-", "1", " "}},
			},
		},
		{
			Columns: []string{"01/02", "02/02"},
			Rows: []models.RawRow{
				{Type: "b", Habit: "1", Cells: []string{"x", "1"}},
			},
		},
	}

	filled := 0
	for _, tbl := range tables {
		for _, row := range tbl.Rows {
			for _, c := range row.Cells {
				if c != "" && c != " " {
					filled++
				}
			}
		}
	}

	got := New(Options{DefaultYear: 2025}).Transform(tables)
	if len(got) != filled {
		t.Errorf("got %d records, want %d", len(got), filled)
	}
}

func TestScoreOf_ReturnsDistinctPointers(t *testing.T) {
	a := ScoreOf("1")
	b := ScoreOf("1")
	if a == b {
		t.Fatal("ScoreOf returned a shared pointer")
	}
	*a = 5
	if *b != 1 {
		t.Errorf("mutating one score changed another: %v", *b)
	}
}
