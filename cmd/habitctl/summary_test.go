package main

import (
	"bytes"
	"testing"

	"github.com/dalemusser/stratahabits/internal/app/system/scoreweights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildFilter(t *testing.T) {
	f, err := buildFilter("2024-01-01", "2024-01-31", []string{"Health"}, []string{"Run", "Read, 20 pages"})
	require.NoError(t, err)
	require.NotNil(t, f.Start)
	require.NotNil(t, f.End)
	assert.Equal(t, []string{"Health"}, f.Types)
	assert.Equal(t, []string{"Run", "Read, 20 pages"}, f.Habits)

	f, err = buildFilter("", "", nil, nil)
	require.NoError(t, err)
	assert.True(t, f.IsZero())

	_, err = buildFilter("01/01/2024", "", nil, nil)
	assert.Error(t, err)

	_, err = buildFilter("2024-02-01", "2024-01-01", nil, nil)
	assert.Error(t, err)
}

func TestSummaryFilterFlagsKeepCommas(t *testing.T) {
	for _, name := range []string{"type", "habit"} {
		fl := summaryCmd.Flags().Lookup(name)
		require.NotNil(t, fl, name)
		assert.Equal(t, "stringArray", fl.Value.Type(), name)
	}
}

func TestPrintSummary(t *testing.T) {
	cfg, src := csvConfig(t)
	res, err := runETL(t.Context(), cfg, src, zap.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, res.Records, scoreweights.Default())
	out := buf.String()

	assert.Contains(t, out, "66.67%")
	assert.Contains(t, out, "2 / 1")
	assert.Contains(t, out, "1 of 2")
	assert.Contains(t, out, "-2 .. 2 (2 habits)")
	assert.Contains(t, out, "By category")
	assert.Contains(t, out, "Health")
	assert.Contains(t, out, "Monday")
}

func TestPrintSummary_Filtered(t *testing.T) {
	cfg, src := csvConfig(t)
	res, err := runETL(t.Context(), cfg, src, zap.NewNop())
	require.NoError(t, err)

	f, err := buildFilter("", "", []string{"Mind"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, f.Apply(res.Records), scoreweights.Default())
	out := buf.String()
	assert.Contains(t, out, "100.00%")
	assert.NotContains(t, out, "Health")
}

func TestPrintSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, nil, scoreweights.Default())
	assert.Contains(t, buf.String(), "No data for the selected filters.")
}

func TestMonthLine(t *testing.T) {
	assert.Equal(t, "N/A", monthLine("N/A", 0))
	assert.Equal(t, "January (50.00%)", monthLine("January", 0.5))
}
