package export

import (
	"bytes"
	"encoding/csv"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	one := 1.0
	records := []models.TidyRecord{
		{Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Type: "Health", Habit: "Run, easy", Status: "1", Score: &one, MonthName: "February", DayOfWeek: "Monday"},
		{Date: time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC), Type: "Health", Habit: "Run, easy", Status: "-", MonthName: "February", DayOfWeek: "Tuesday"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"2024-02-05", "Health", "Run, easy", "1", "1", "February", "Monday"}, rows[1])
	assert.Equal(t, "", rows[2][4])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "date,type,habit,status,score,month_name,day_of_week\n", buf.String())
}

func TestSetDownloadHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetDownloadHeaders(rec)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), Filename)
}
