// internal/app/system/sheets/source.go

// Package sheets reads the monthly habit worksheets from a spreadsheet source
// and shapes them into raw month tables.
package sheets

import (
	"context"
	"errors"
)

// ErrSourceUnavailable wraps any failure to reach or authenticate against the
// spreadsheet source. A missing worksheet is not an error.
var ErrSourceUnavailable = errors.New("spreadsheet source unavailable")

// ErrSheetNotFound is returned by Source.Values for an unknown sheet title.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrSheetMalformed is returned by Source.Values when a worksheet exists but its
// contents cannot be decoded. The fetcher skips such a sheet as invalid.
var ErrSheetMalformed = errors.New("sheet malformed")

// Source is a spreadsheet made of titled worksheets.
type Source interface {
	// SheetTitles lists the worksheet titles in the spreadsheet.
	SheetTitles(ctx context.Context) ([]string, error)
	// Values returns every non-empty row of a worksheet as display strings,
	// header row first. Rows may be ragged.
	Values(ctx context.Context, sheet string) ([][]string, error)
}

// DefaultMonths are the worksheet titles read when none are configured.
var DefaultMonths = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
