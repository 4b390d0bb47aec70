package etfgrid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/source"
)

const updateQuotes = `
quotes:
  - code: X
    date: 2026-02-05
    market_value: 132
    unit_price: 2.4
holidays: [2026-02-16]
`

func newTestManager(t *testing.T) *source.Manager {
	t.Helper()
	file, err := source.ParseFile("quotes.yaml", []byte(updateQuotes))
	require.NoError(t, err)
	return source.NewManager(nil, 2, file)
}

func TestUpdate(t *testing.T) {
	opts := testOptions(t)
	s, err := Open(writeWorkbook(t), opts)
	require.NoError(t, err)
	defer s.Close()

	report, err := Update(context.Background(), s, newTestManager(t), "2026/2/5")
	require.NoError(t, err)

	assert.Equal(t, "2026-02-05", report.Date)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, []string{"X"}, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Y", report.Failures[0].Code)
	assert.ErrorIs(t, report.Failures[0].Err, source.ErrAllSourcesFailed)
	assert.Equal(t, 4, report.Recalc.Column)
	assert.Equal(t, 1, report.Recalc.Instruments)

	records, err := s.Extract()
	require.NoError(t, err)
	got, ok := recordValue(records, "X", "2026-02-05", "份额变动")
	assert.True(t, ok)
	assert.InDelta(t, 5, got, 1e-9)
}

func TestUpdateSkips(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{"weekend", "2026-02-07", "not a trading day"},
		{"holiday", "2026-02-16", "not a trading day"},
		{"no data", "2026-02-06", "no quotes fetched"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(writeWorkbook(t), testOptions(t))
			require.NoError(t, err)
			defer s.Close()
			maxCol := s.Grid().MaxCol()

			report, err := Update(context.Background(), s, newTestManager(t), tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Skipped)
			assert.Equal(t, maxCol, s.Grid().MaxCol(), "nothing may be written when skipping")
		})
	}
}

func TestUpdateInvalidDate(t *testing.T) {
	s, err := Open(writeWorkbook(t), testOptions(t))
	require.NoError(t, err)
	defer s.Close()

	_, err = Update(context.Background(), s, newTestManager(t), "tomorrow")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
