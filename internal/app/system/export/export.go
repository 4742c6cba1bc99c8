// internal/app/system/export/export.go

// Package export writes tidy habit records as CSV.
package export

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratahabits/internal/domain/models"
)

// DateLayout is the date format used in the date column.
const DateLayout = "2006-01-02"

// Filename is the attachment name offered to browsers.
const Filename = "habits.csv"

// Header is the CSV header row.
var Header = []string{"date", "type", "habit", "status", "score", "month_name", "day_of_week"}

// WriteCSV writes the header and one row per record. Rest days and unknown
// tokens have an empty score column.
func WriteCSV(w io.Writer, records []models.TidyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		score := ""
		if r.Score != nil {
			score = strconv.FormatFloat(*r.Score, 'f', -1, 64)
		}
		if err := cw.Write([]string{
			r.Date.Format(DateLayout),
			r.Type,
			r.Habit,
			r.Status,
			score,
			r.MonthName,
			r.DayOfWeek,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SetDownloadHeaders marks the response as a CSV attachment.
func SetDownloadHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
}
