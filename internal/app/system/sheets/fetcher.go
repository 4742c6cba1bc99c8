// internal/app/system/sheets/fetcher.go
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratahabits/internal/domain/models"
	"go.uber.org/zap"
)

// FetchResult is the outcome of reading every configured month sheet.
type FetchResult struct {
	Tables  []models.RawMonthTable
	Missing []string // configured sheets absent from the spreadsheet
	Invalid []string // sheets whose header has no type or habit column
}

// Fetcher reads the configured month sheets from a Source.
type Fetcher struct {
	src    Source
	months []string
	logger *zap.Logger
}

// NewFetcher returns a Fetcher for the given sheet titles. An empty months
// list falls back to DefaultMonths.
func NewFetcher(src Source, months []string, logger *zap.Logger) *Fetcher {
	if len(months) == 0 {
		months = DefaultMonths
	}
	return &Fetcher{src: src, months: months, logger: logger}
}

// Months returns the sheet titles the fetcher reads.
func (f *Fetcher) Months() []string {
	return append([]string(nil), f.months...)
}

// Fetch reads each configured month sheet in order. Missing and malformed
// sheets are logged and skipped; only a source failure is returned as an
// error, wrapped in ErrSourceUnavailable.
func (f *Fetcher) Fetch(ctx context.Context) (FetchResult, error) {
	var res FetchResult

	titles, err := f.src.SheetTitles(ctx)
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			return res, err
		}
		return res, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	present := make(map[string]bool, len(titles))
	for _, t := range titles {
		present[t] = true
	}

	for _, month := range f.months {
		if !present[month] {
			f.logger.Warn("month sheet not found", zap.String("sheet", month))
			res.Missing = append(res.Missing, month)
			continue
		}

		rows, err := f.src.Values(ctx, month)
		if errors.Is(err, ErrSheetNotFound) {
			f.logger.Warn("month sheet not found", zap.String("sheet", month))
			res.Missing = append(res.Missing, month)
			continue
		}
		if errors.Is(err, ErrSheetMalformed) {
			f.logger.Warn("month sheet is malformed, skipping", zap.String("sheet", month), zap.Error(err))
			res.Invalid = append(res.Invalid, month)
			continue
		}
		if err != nil {
			return FetchResult{}, fmt.Errorf("fetch sheet %q: %w", month, err)
		}

		table, ok := buildTable(month, rows)
		if !ok {
			f.logger.Warn("month sheet has no type/habit header, skipping", zap.String("sheet", month))
			res.Invalid = append(res.Invalid, month)
			continue
		}
		f.logger.Debug("month sheet loaded",
			zap.String("sheet", month),
			zap.Int("rows", len(table.Rows)),
			zap.Int("columns", len(table.Columns)))
		res.Tables = append(res.Tables, table)
	}
	return res, nil
}

// buildTable turns a header row plus data rows into a RawMonthTable. It
// reports false when the header lacks a type or habit column.
func buildTable(sheet string, rows [][]string) (models.RawMonthTable, bool) {
	table := models.RawMonthTable{Sheet: sheet}
	if len(rows) == 0 {
		return table, false
	}

	header := rows[0]
	typeIdx, habitIdx := -1, -1
	var dayIdx []int
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case name == "type" && typeIdx < 0:
			typeIdx = i
		case name == "habit" && habitIdx < 0:
			habitIdx = i
		default:
			dayIdx = append(dayIdx, i)
			table.Columns = append(table.Columns, strings.TrimSpace(h))
		}
	}
	if typeIdx < 0 || habitIdx < 0 {
		return models.RawMonthTable{Sheet: sheet}, false
	}

	for _, row := range rows[1:] {
		r := models.RawRow{
			Type:  strings.TrimSpace(cell(row, typeIdx)),
			Habit: strings.TrimSpace(cell(row, habitIdx)),
			Cells: make([]string, len(dayIdx)),
		}
		blank := r.Type == "" && r.Habit == ""
		for j, idx := range dayIdx {
			r.Cells[j] = cell(row, idx)
			if strings.TrimSpace(r.Cells[j]) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, r)
	}
	return table, true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
