// Package eastmoney adapts the primary market-data upstream to the
// providers.QuoteProvider contract.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/domain"
)

const defaultBaseURL = "https://push2.eastmoney.example/api"

// Client is the Primary QuoteProvider implementation.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	log     zerolog.Logger
}

// New builds a Client. token may be empty for endpoints that don't require it.
func New(baseURL, token string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
		log:     log.With().Str("provider", "eastmoney").Logger(),
	}
}

// Name implements providers.QuoteProvider.
func (c *Client) Name() string { return "eastmoney" }

// wireTicker is the roster endpoint's per-row shape.
type wireTicker struct {
	Code        string  `json:"f12"`
	Name        string  `json:"f14"`
	Industry    string  `json:"industry"`
	Region      string  `json:"region"`
	TotalCap    float64 `json:"f20"`
	FreeFloat   float64 `json:"f21"`
}

// LoadReferenceUniverse implements providers.QuoteProvider.
func (c *Client) LoadReferenceUniverse(ctx context.Context) ([]domain.TickerRef, error) {
	var wire struct {
		Data struct {
			Rows []wireTicker `json:"diff"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/qt/clist/universe", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.TickerRef, 0, len(wire.Data.Rows))
	for _, r := range wire.Data.Rows {
		out = append(out, domain.TickerRef{
			Code:               r.Code,
			Market:             domain.MarketFromCode(r.Code),
			Name:               r.Name,
			Industry:           r.Industry,
			ListingRegion:      r.Region,
			TotalMarketCap:     r.TotalCap,
			FreeFloatMarketCap: r.FreeFloat,
		})
	}
	return out, nil
}

// wireSnapshot is the quote-batch endpoint's per-row shape.
type wireSnapshot struct {
	Code          string  `json:"f12"`
	Open          float64 `json:"f17"`
	High          float64 `json:"f15"`
	Low           float64 `json:"f16"`
	Close         float64 `json:"f2"`
	PreviousClose float64 `json:"f18"`
	Volume        float64 `json:"f5"`
	Value         float64 `json:"f6"`
	TurnoverRate  float64 `json:"f8"`
	Timestamp     int64   `json:"f124"`
}

// FetchSnapshotBatch implements providers.QuoteProvider.
func (c *Client) FetchSnapshotBatch(ctx context.Context, codes []string) (map[string]domain.QuoteSnapshot, error) {
	var wire struct {
		Data struct {
			Rows []wireSnapshot `json:"diff"`
		} `json:"data"`
	}
	q := url.Values{"secids": {strings.Join(codes, ",")}}
	if err := c.get(ctx, "/qt/ulist.np/get", q, &wire); err != nil {
		return nil, err
	}
	out := make(map[string]domain.QuoteSnapshot, len(wire.Data.Rows))
	for _, r := range wire.Data.Rows {
		if r.Close <= 0 || r.Volume < 0 {
			continue
		}
		out[r.Code] = domain.QuoteSnapshot{
			Ticker:        r.Code,
			Open:          r.Open,
			High:          r.High,
			Low:           r.Low,
			Close:         r.Close,
			PreviousClose: r.PreviousClose,
			Volume:        r.Volume,
			Value:         r.Value,
			TurnoverRate:  r.TurnoverRate,
			SessionTime:   time.Unix(r.Timestamp, 0).UTC(),
		}
	}
	return out, nil
}

// wireBar is the kline endpoint's per-row shape: a comma-joined string.
type wireBar string

func (c *Client) parseBar(raw wireBar) (domain.HistoryBar, error) {
	fields := strings.Split(string(raw), ",")
	if len(fields) < 6 {
		return domain.HistoryBar{}, fmt.Errorf("kline row has %d fields, want at least 6: %w", len(fields), domain.ErrMalformed)
	}
	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return domain.HistoryBar{}, fmt.Errorf("parsing kline date %q: %w", fields[0], domain.ErrMalformed)
	}
	parsed := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return domain.HistoryBar{}, fmt.Errorf("parsing kline field %d: %w", i+1, domain.ErrMalformed)
		}
		parsed[i] = v
	}
	return domain.HistoryBar{
		Date:   date,
		Open:   parsed[0],
		Close:  parsed[1],
		High:   parsed[2],
		Low:    parsed[3],
		Volume: parsed[4],
	}, nil
}

// FetchHistory implements providers.QuoteProvider.
func (c *Client) FetchHistory(ctx context.Context, code string, lookbackDays int) (domain.History, error) {
	var wire struct {
		Data struct {
			Klines []wireBar `json:"klines"`
		} `json:"data"`
	}
	q := url.Values{
		"secid": {code},
		"lmt":   {strconv.Itoa(lookbackDays)},
	}
	if err := c.get(ctx, "/qt/stock/kline/get", q, &wire); err != nil {
		return nil, err
	}
	out := make(domain.History, 0, len(wire.Data.Klines))
	for _, raw := range wire.Data.Klines {
		bar, err := c.parseBar(raw)
		if err != nil {
			return nil, err
		}
		if bar.Close <= 0 || bar.Volume < 0 {
			continue
		}
		out = append(out, bar)
	}
	return out, nil
}

// wireFundamentals is the fundamentals endpoint's shape. Fields omitted by
// the upstream are left as nil pointers, never defaulted to zero.
type wireFundamentals struct {
	PE            *float64 `json:"pe_ttm"`
	PB            *float64 `json:"pb"`
	ROE           *float64 `json:"roe_weighted"`
	RevenueGrowth *float64 `json:"yoy_revenue"`
	ProfitGrowth  *float64 `json:"yoy_net_profit"`
	DebtRatio     *float64 `json:"debt_asset_ratio"`
	CurrentRatio  *float64 `json:"current_ratio"`
	DividendYield *float64 `json:"dividend_yield"`
	PayoutRatio   *float64 `json:"payout_ratio"`
	GrossMargin   *float64 `json:"gross_margin"`
	RDRatio       *float64 `json:"rd_expense_ratio"`
	ESGScore      *float64 `json:"esg_score"`
	MarketShare   *float64 `json:"market_share"`
	MarketCap     *float64 `json:"total_market_cap"`
}

// FetchFundamentals implements providers.QuoteProvider.
func (c *Client) FetchFundamentals(ctx context.Context, code string) (domain.Fundamentals, error) {
	var wire struct {
		Data wireFundamentals `json:"data"`
	}
	q := url.Values{"secid": {code}}
	if err := c.get(ctx, "/qt/stock/fundamentals/get", q, &wire); err != nil {
		return domain.Fundamentals{}, err
	}
	return domain.Fundamentals{
		PE:            wire.Data.PE,
		PB:            wire.Data.PB,
		ROE:           wire.Data.ROE,
		RevenueGrowth: wire.Data.RevenueGrowth,
		ProfitGrowth:  wire.Data.ProfitGrowth,
		DebtRatio:     wire.Data.DebtRatio,
		CurrentRatio:  wire.Data.CurrentRatio,
		DividendYield: wire.Data.DividendYield,
		PayoutRatio:   wire.Data.PayoutRatio,
		GrossMargin:   wire.Data.GrossMargin,
		RDRatio:       wire.Data.RDRatio,
		ESGScore:      wire.Data.ESGScore,
		MarketShare:   wire.Data.MarketShare,
		MarketCap:     wire.Data.MarketCap,
	}, nil
}

// get performs an authenticated GET and decodes the JSON body into out,
// translating transport/HTTP failures into the domain error taxonomy.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	if c.token != "" {
		q.Set("token", c.token)
	}
	full := c.baseURL + path
	if len(q) > 0 {
		full += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("eastmoney request failed")
		return fmt.Errorf("eastmoney request: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading eastmoney response: %w", domain.ErrUnavailable)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("eastmoney rate limit: %w", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("eastmoney not found: %w", domain.ErrNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("eastmoney status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	case resp.StatusCode >= 400:
		return fmt.Errorf("eastmoney status %d: %w", resp.StatusCode, domain.ErrMalformed)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("eastmoney response decode failed")
		return fmt.Errorf("decoding eastmoney response: %w", domain.ErrMalformed)
	}
	return nil
}
