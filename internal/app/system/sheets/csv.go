// internal/app/system/sheets/csv.go
package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// CSVSource reads worksheets exported as CSV files, one <title>.csv per sheet
// in a single directory.
type CSVSource struct {
	fsys fs.FS
}

// NewCSVSource opens dir as a CSVSource.
func NewCSVSource(dir string) (*CSVSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceUnavailable, dir)
	}
	return &CSVSource{fsys: os.DirFS(dir)}, nil
}

// NewCSVSourceFS reads sheets from an fs.FS.
func NewCSVSourceFS(fsys fs.FS) *CSVSource {
	return &CSVSource{fsys: fsys}
}

func (c *CSVSource) SheetTitles(ctx context.Context) ([]string, error) {
	matches, err := fs.Glob(c.fsys, "*.csv")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	titles := make([]string, 0, len(matches))
	for _, m := range matches {
		titles = append(titles, strings.TrimSuffix(filepath.Base(m), ".csv"))
	}
	slices.Sort(titles)
	return titles, nil
}

func (c *CSVSource) Values(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := c.fsys.Open(sheet + ".csv")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s.csv: %v", ErrSheetMalformed, sheet, err)
	}
	return rows, nil
}
