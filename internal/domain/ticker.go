// Package domain holds the core types shared by every component of the
// strategy execution engine: tickers, quotes, fundamentals, indicators,
// strategies, and jobs.
package domain

import "strings"

// Market is the exchange/board a ticker is listed on, derived from its code prefix.
type Market string

const (
	MarketPrimary   Market = "A" // Shanghai-style main board: 600/601/603/605/688
	MarketSecondary Market = "B" // Shenzhen-style main/growth board: 000/001/002/003/300
	MarketTertiary  Market = "C" // Beijing/NEEQ-style board: 8xx/4xx
	MarketUnknown   Market = ""
)

// ALLTag is the sentinel value meaning "no restriction on this axis" in a UniverseFilter.
const ALLTag = "ALL"

var primaryPrefixes = []string{"600", "601", "603", "605", "688"}
var secondaryPrefixes = []string{"000", "001", "002", "003", "300"}

// MarketFromCode derives a ticker's market from its 6-character code prefix.
// Deterministic: the same code always yields the same market.
func MarketFromCode(code string) Market {
	for _, p := range primaryPrefixes {
		if strings.HasPrefix(code, p) {
			return MarketPrimary
		}
	}
	for _, p := range secondaryPrefixes {
		if strings.HasPrefix(code, p) {
			return MarketSecondary
		}
	}
	if strings.HasPrefix(code, "8") || strings.HasPrefix(code, "4") {
		return MarketTertiary
	}
	return MarketUnknown
}

// TickerRef is a reference-roster entry: the stable identity plus descriptive metadata.
type TickerRef struct {
	Code               string  `json:"code"`
	Market             Market  `json:"market"`
	Name               string  `json:"name"`
	Industry           string  `json:"industry"`
	ListingRegion      string  `json:"listing_region"`
	TotalMarketCap     float64 `json:"total_market_cap"`
	FreeFloatMarketCap float64 `json:"free_float_market_cap"`
}

// IsSuspendedOrDelisted reports whether the display name carries a
// suspension/delisting marker ("ST" or "退"), per UniverseResolver's drop rule.
func (t TickerRef) IsSuspendedOrDelisted() bool {
	return strings.Contains(t.Name, "ST") || strings.Contains(t.Name, "退")
}

// UniverseFilter selects a subset of the reference roster by market and industry tags.
// ALLTag on either axis means "no restriction on that axis".
type UniverseFilter struct {
	Markets    []string `json:"markets,omitempty"`
	Industries []string `json:"industries,omitempty"`
}

func (f UniverseFilter) matchesAny(tags []string, value string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if t == ALLTag {
			return true
		}
		if strings.EqualFold(t, value) {
			return true
		}
	}
	return false
}

// MatchesMarket reports whether the filter admits the given market.
func (f UniverseFilter) MatchesMarket(m Market) bool {
	return f.matchesAny(f.Markets, string(m))
}

// MatchesIndustry reports whether the filter admits the given industry tag.
func (f UniverseFilter) MatchesIndustry(industry string) bool {
	return f.matchesAny(f.Industries, industry)
}

// validMarketTags are the only strings MatchesMarket can ever compare
// true against, besides ALLTag.
var validMarketTags = map[string]bool{
	string(MarketPrimary):   true,
	string(MarketSecondary): true,
	string(MarketTertiary):  true,
}

// Validate reports ErrBadFilter if the filter names a market tag outside
// the known enum. Industries are left unchecked: the reference roster's
// industry tags aren't a closed set known ahead of UniverseResolver.Resolve.
func (f UniverseFilter) Validate() error {
	for _, t := range f.Markets {
		if t == ALLTag {
			continue
		}
		if !validMarketTags[strings.ToUpper(t)] {
			return ErrBadFilter
		}
	}
	return nil
}
