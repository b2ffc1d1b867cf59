package boundary

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/indicators"
)

// technicalLookbackDays mirrors jobengine's history window; the two
// packages choose it independently since neither is a library the other imports.
const technicalLookbackDays = 130

type technicalResponse struct {
	Ticker       domain.TickerRef     `json:"ticker"`
	Snapshot     domain.QuoteSnapshot `json:"snapshot"`
	Indicators   domain.IndicatorSet  `json:"indicators"`
	Fundamentals domain.Fundamentals  `json:"fundamentals"`
}

// handleTickerTechnical serves a single ticker's latest snapshot plus its
// full technical picture. A thin DataGateway + IndicatorKernel
// collaborator that deliberately does not touch JobEngine.
func (s *Server) handleTickerTechnical(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	ctx := r.Context()

	snapshots, err := s.container.Gateway.FetchSnapshotBatch(ctx, []string{ticker})
	if err != nil {
		s.writeError(w, err)
		return
	}
	snapshot, ok := snapshots[ticker]
	if !ok {
		s.writeError(w, domain.ErrNotFound)
		return
	}

	history, err := s.container.Gateway.FetchHistory(ctx, ticker, technicalLookbackDays)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fundamentals, err := s.container.Gateway.FetchFundamentals(ctx, ticker)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, technicalResponse{
		Ticker:       domain.TickerRef{Code: ticker, Market: domain.MarketFromCode(ticker)},
		Snapshot:     snapshot,
		Indicators:   indicators.Compute(history),
		Fundamentals: fundamentals,
	})
}

type marketOverviewResponse struct {
	TotalTickers       int                        `json:"total_tickers"`
	Advancers          int                        `json:"advancers"`
	Decliners          int                        `json:"decliners"`
	Unchanged          int                        `json:"unchanged"`
	MarketDistribution domain.MarketDistribution  `json:"market_distribution"`
}

// handleMarketOverview reports market-wide breadth: advancer/decliner/
// unchanged counts and a per-market ticker distribution. A thin
// DataGateway collaborator, deliberately not reusing JobEngine.
func (s *Server) handleMarketOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roster, err := s.container.Gateway.LoadReferenceUniverse(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	codes := make([]string, 0, len(roster))
	marketDist := domain.MarketDistribution{}
	for _, t := range roster {
		if t.IsSuspendedOrDelisted() {
			continue
		}
		codes = append(codes, t.Code)
		marketDist[t.Market]++
	}

	snapshots, err := s.container.Gateway.FetchSnapshotBatch(ctx, codes)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var advancers, decliners, unchanged int
	for _, snap := range snapshots {
		switch {
		case snap.PercentChange() > 0:
			advancers++
		case snap.PercentChange() < 0:
			decliners++
		default:
			unchanged++
		}
	}

	s.writeJSON(w, http.StatusOK, marketOverviewResponse{
		TotalTickers:       len(codes),
		Advancers:          advancers,
		Decliners:          decliners,
		Unchanged:          unchanged,
		MarketDistribution: marketDist,
	})
}
