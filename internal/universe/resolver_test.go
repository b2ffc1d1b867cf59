package universe

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/domain"
)

type fakeRoster struct {
	tickers []domain.TickerRef
	err     error
}

func (f fakeRoster) LoadReferenceUniverse(ctx context.Context) ([]domain.TickerRef, error) {
	return f.tickers, f.err
}

func TestResolveDropsSuspendedAndDelisted(t *testing.T) {
	r := New(fakeRoster{tickers: []domain.TickerRef{
		{Code: "600001", Name: "Good Co", Market: domain.MarketPrimary},
		{Code: "600002", Name: "ST Bad Co", Market: domain.MarketPrimary},
		{Code: "600003", Name: "Delisted退", Market: domain.MarketPrimary},
	}}, zerolog.Nop())

	out, err := r.Resolve(context.Background(), domain.UniverseFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "600001", out[0].Code)
}

func TestResolveAppliesFilterAndDedupesAndSorts(t *testing.T) {
	r := New(fakeRoster{tickers: []domain.TickerRef{
		{Code: "600002", Name: "B", Market: domain.MarketPrimary, Industry: "Banking"},
		{Code: "600002", Name: "B dup", Market: domain.MarketPrimary, Industry: "Banking"},
		{Code: "600001", Name: "A", Market: domain.MarketPrimary, Industry: "Banking"},
		{Code: "000001", Name: "C", Market: domain.MarketSecondary, Industry: "Tech"},
	}}, zerolog.Nop())

	out, err := r.Resolve(context.Background(), domain.UniverseFilter{
		Markets:    []string{"A"},
		Industries: []string{"Banking"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []string{"600001", "600002"}, []string{out[0].Code, out[1].Code})
}

func TestResolvePropagatesGatewayError(t *testing.T) {
	r := New(fakeRoster{err: domain.ErrUnavailable}, zerolog.Nop())
	_, err := r.Resolve(context.Background(), domain.UniverseFilter{})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestResolveEmptyRosterIsNotAnError(t *testing.T) {
	r := New(fakeRoster{tickers: nil}, zerolog.Nop())
	out, err := r.Resolve(context.Background(), domain.UniverseFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
