package sheets

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type fakeSource struct {
	sheets   map[string][][]string
	titleErr error
	valueErr error
	calls    []string
}

func (f *fakeSource) SheetTitles(ctx context.Context) ([]string, error) {
	if f.titleErr != nil {
		return nil, f.titleErr
	}
	var titles []string
	for t := range f.sheets {
		titles = append(titles, t)
	}
	return titles, nil
}

func (f *fakeSource) Values(ctx context.Context, sheet string) ([][]string, error) {
	f.calls = append(f.calls, sheet)
	if f.valueErr != nil {
		return nil, f.valueErr
	}
	rows, ok := f.sheets[sheet]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return rows, nil
}

func TestFetch(t *testing.T) {
	src := &fakeSource{sheets: map[string][][]string{
		"jan": {
			{"Type", "habit", "1/1", "2/1"},
			{"Health", "Run", "1", "0"},
			{"Mind", "Read", "-"}, // ragged row
			{"", "", "", ""},      // trailing blank row
		},
		"feb": {
			{"name", "1/2"},
			{"Run", "1"},
		},
	}}

	res, err := NewFetcher(src, []string{"jan", "feb", "mar"}, zap.NewNop()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := []models.RawMonthTable{{
		Sheet:   "jan",
		Columns: []string{"1/1", "2/1"},
		Rows: []models.RawRow{
			{Type: "Health", Habit: "Run", Cells: []string{"1", "0"}},
			{Type: "Mind", Habit: "Read", Cells: []string{"-", ""}},
		},
	}}
	if diff := cmp.Diff(want, res.Tables); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"mar"}, res.Missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"feb"}, res.Invalid); diff != "" {
		t.Errorf("invalid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"jan", "feb"}, src.calls); diff != "" {
		t.Errorf("sheets read out of order (-want +got):\n%s", diff)
	}
}

func TestFetchDefaultsToAllMonths(t *testing.T) {
	f := NewFetcher(&fakeSource{}, nil, zap.NewNop())
	if len(f.Months()) != 12 {
		t.Errorf("Months() = %v", f.Months())
	}
	res, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Tables) != 0 || len(res.Missing) != 12 {
		t.Errorf("Fetch() = %+v", res)
	}
}

func TestFetchSourceUnavailable(t *testing.T) {
	boom := errors.New("connection refused")

	_, err := NewFetcher(&fakeSource{titleErr: boom}, []string{"jan"}, zap.NewNop()).Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("listing failure: got %v, want ErrSourceUnavailable", err)
	}

	src := &fakeSource{
		sheets:   map[string][][]string{"jan": nil},
		valueErr: ErrSourceUnavailable,
	}
	_, err = NewFetcher(src, []string{"jan"}, zap.NewNop()).Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("read failure: got %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchEmptySheetIsInvalid(t *testing.T) {
	src := &fakeSource{sheets: map[string][][]string{"jan": {}}}
	res, err := NewFetcher(src, []string{"jan"}, zap.NewNop()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Invalid) != 1 || len(res.Tables) != 0 {
		t.Errorf("Fetch() = %+v", res)
	}
}

func TestCSVSource(t *testing.T) {
	src := NewCSVSourceFS(fstest.MapFS{
		"jan.csv":    {Data: []byte("\ufefftype,habit,1/1,2/1\nHealth,Run,1,0\nMind,Read,-\n")},
		"feb.csv":    {Data: []byte("type,habit,1/2\n")},
		"readme.txt": {Data: []byte("ignored")},
	})

	titles, err := src.SheetTitles(context.Background())
	if err != nil {
		t.Fatalf("SheetTitles() error = %v", err)
	}
	if diff := cmp.Diff([]string{"feb", "jan"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	if _, err := src.Values(context.Background(), "mar"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("Values(mar) error = %v, want ErrSheetNotFound", err)
	}

	res, err := NewFetcher(src, []string{"jan", "feb"}, zap.NewNop()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(res.Tables))
	}
	jan := res.Tables[0]
	if diff := cmp.Diff([]string{"1/1", "2/1"}, jan.Columns); diff != "" {
		t.Errorf("jan columns mismatch (-want +got):\n%s", diff)
	}
	if got := jan.Rows[1].Cells; got[0] != "-" || got[1] != "" {
		t.Errorf("ragged row cells = %q", got)
	}
	if len(res.Tables[1].Rows) != 0 {
		t.Errorf("feb rows = %v, want none", res.Tables[1].Rows)
	}
}

func TestFetchMalformedCSVIsInvalid(t *testing.T) {
	src := NewCSVSourceFS(fstest.MapFS{
		"jan.csv": {Data: []byte("type,habit,1/1\nHealth,\"Run,1\n")},
		"feb.csv": {Data: []byte("type,habit,1/2\nHealth,Run,1\n")},
	})

	if _, err := src.Values(context.Background(), "jan"); !errors.Is(err, ErrSheetMalformed) {
		t.Errorf("Values(jan) error = %v, want ErrSheetMalformed", err)
	}

	res, err := NewFetcher(src, []string{"jan", "feb"}, zap.NewNop()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if diff := cmp.Diff([]string{"jan"}, res.Invalid); diff != "" {
		t.Errorf("Invalid mismatch (-want +got):\n%s", diff)
	}
	if len(res.Tables) != 1 || res.Tables[0].Sheet != "feb" {
		t.Errorf("Tables = %+v, want only feb", res.Tables)
	}
}

func TestQuoteRange(t *testing.T) {
	if got := quoteRange("bob's jan"); got != "'bob''s jan'" {
		t.Errorf("quoteRange() = %q", got)
	}
}
