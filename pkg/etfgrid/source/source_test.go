package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
)

// stubSource answers from a fixed table and counts its calls.
type stubSource struct {
	name    string
	quotes  map[string]models.Quote
	open    *bool
	calls   atomic.Int32
	mu      sync.Mutex
	running int
	peak    int
	block   chan struct{}
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Quote(ctx context.Context, code, date string) (models.Quote, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.running++
	s.peak = max(s.peak, s.running)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}()
	if s.block != nil {
		<-s.block
	}

	q, ok := s.quotes[code]
	if !ok {
		return models.Quote{}, ErrNoQuote
	}
	q.Code, q.Date = code, date
	return q, nil
}

func (s *stubSource) IsTradingDay(ctx context.Context, date string) (bool, error) {
	if s.open == nil {
		return false, errors.New("calendar unavailable")
	}
	return *s.open, nil
}

func TestManagerQuoteFallback(t *testing.T) {
	primary := &stubSource{name: "primary", quotes: map[string]models.Quote{}}
	secondary := &stubSource{name: "secondary", quotes: map[string]models.Quote{
		"510300": {MarketValue: 120.5, UnitPrice: 3.2},
	}}
	m := NewManager(nil, 2, primary, secondary)

	q, err := m.Quote(context.Background(), "510300", "2026-02-05")
	require.NoError(t, err)
	assert.Equal(t, 120.5, q.MarketValue)
	assert.Equal(t, 3.2, q.UnitPrice)
	assert.EqualValues(t, 1, primary.calls.Load())
	assert.EqualValues(t, 1, secondary.calls.Load())
}

func TestManagerQuoteAllFail(t *testing.T) {
	m := NewManager(nil, 1,
		&stubSource{name: "a", quotes: map[string]models.Quote{}},
		&stubSource{name: "b", quotes: map[string]models.Quote{}},
	)

	_, err := m.Quote(context.Background(), "159915", "2026-02-05")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestManagerQuoteCanceled(t *testing.T) {
	src := &stubSource{name: "a", quotes: map[string]models.Quote{"X": {}}}
	m := NewManager(nil, 1, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Quote(ctx, "X", "2026-02-05")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls.Load())
}

func TestManagerIsTradingDay(t *testing.T) {
	closed, open := false, true

	m := NewManager(nil, 1, &stubSource{name: "down"}, &stubSource{name: "calendar", open: &closed})
	assert.False(t, m.IsTradingDay(context.Background(), "2026-02-16"))

	m = NewManager(nil, 1, &stubSource{name: "calendar", open: &open})
	assert.True(t, m.IsTradingDay(context.Background(), "2026-02-05"))

	m = NewManager(nil, 1, &stubSource{name: "down"})
	assert.True(t, m.IsTradingDay(context.Background(), "2026-02-05"), "unknown days are assumed open")
}

func TestManagerFetchAll(t *testing.T) {
	src := &stubSource{name: "a", quotes: map[string]models.Quote{
		"X": {MarketValue: 1, UnitPrice: 1},
		"Y": {MarketValue: 2, UnitPrice: 1},
		"W": {MarketValue: 4, UnitPrice: 1},
	}}
	m := NewManager(nil, 2, src)

	quotes, failures := m.FetchAll(context.Background(), []string{"X", "Z", "Y", "W"}, "2026-02-05")

	require.Len(t, quotes, 3)
	assert.Equal(t, []string{"X", "Y", "W"}, []string{quotes[0].Code, quotes[1].Code, quotes[2].Code})
	require.Len(t, failures, 1)
	assert.Equal(t, "Z", failures[0].Code)
	assert.ErrorIs(t, failures[0].Err, ErrAllSourcesFailed)
}

func TestManagerFetchAllBoundsParallelism(t *testing.T) {
	src := &stubSource{name: "a", quotes: map[string]models.Quote{}, block: make(chan struct{})}
	codes := []string{"A", "B", "C", "D", "E", "F"}
	m := NewManager(nil, 2, src)

	done := make(chan struct{})
	go func() {
		m.FetchAll(context.Background(), codes, "2026-02-05")
		close(done)
	}()
	for range codes {
		src.block <- struct{}{}
	}
	<-done

	assert.LessOrEqual(t, src.peak, 2)
	assert.EqualValues(t, len(codes), src.calls.Load())
}
