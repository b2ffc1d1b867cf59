// Package sina adapts the secondary market-data upstream to the
// providers.QuoteProvider contract. It serves snapshots from a
// lighter-weight text feed and does not carry history, fundamentals or a
// reference roster of its own; those operations return
// domain.ErrUnavailable.
package sina

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/domain"
)

const defaultBaseURL = "https://hq.sinajs.example"

// Client is the Secondary QuoteProvider implementation.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger
}

// New builds a Client.
func New(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		log:     log.With().Str("provider", "sina").Logger(),
	}
}

// Name implements providers.QuoteProvider.
func (c *Client) Name() string { return "sina" }

// LoadReferenceUniverse is unsupported: sina only carries live quotes, not a
// full reference roster, so it never originates the universe.
func (c *Client) LoadReferenceUniverse(ctx context.Context) ([]domain.TickerRef, error) {
	return nil, fmt.Errorf("sina has no reference roster: %w", domain.ErrUnavailable)
}

// FetchSnapshotBatch implements providers.QuoteProvider. Sina's feed replies
// with one `var hq_str_<code>="field,field,...";` line per requested code.
func (c *Client) FetchSnapshotBatch(ctx context.Context, codes []string) (map[string]domain.QuoteSnapshot, error) {
	list := make([]string, len(codes))
	for i, code := range codes {
		list[i] = sinaSymbol(code)
	}
	q := url.Values{"list": {strings.Join(list, ",")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/list?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("sina request failed")
		return nil, fmt.Errorf("sina request: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("sina rate limit: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("sina status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sina status %d: %w", resp.StatusCode, domain.ErrMalformed)
	}

	out := make(map[string]domain.QuoteSnapshot, len(codes))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		code, snap, ok := parseHQLine(scanner.Text())
		if !ok {
			continue
		}
		if snap.Close <= 0 || snap.Volume < 0 {
			continue
		}
		out[code] = snap
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sina response: %w", domain.ErrUnavailable)
	}
	return out, nil
}

// FetchHistory is unsupported: sina's live-quote feed carries no history,
// so it can never serve as the history-fetch provider.
func (c *Client) FetchHistory(ctx context.Context, code string, lookbackDays int) (domain.History, error) {
	return nil, fmt.Errorf("sina has no history feed: %w", domain.ErrUnavailable)
}

// FetchFundamentals is unsupported for the same reason.
func (c *Client) FetchFundamentals(ctx context.Context, code string) (domain.Fundamentals, error) {
	return domain.Fundamentals{}, fmt.Errorf("sina has no fundamentals feed: %w", domain.ErrUnavailable)
}

// sinaSymbol prefixes a bare 6-digit code with its exchange tag the way
// sina's feed expects it ("sh600000", "sz000001").
func sinaSymbol(code string) string {
	switch domain.MarketFromCode(code) {
	case domain.MarketPrimary:
		return "sh" + code
	case domain.MarketSecondary:
		return "sz" + code
	default:
		return "bj" + code
	}
}

// parseHQLine parses one `var hq_str_sh600000="name,open,prev_close,price,high,low,...,volume,value,...";`
// line into a code and snapshot.
func parseHQLine(line string) (string, domain.QuoteSnapshot, bool) {
	start := strings.Index(line, "hq_str_")
	eq := strings.Index(line, "=")
	if start < 0 || eq < 0 || eq < start {
		return "", domain.QuoteSnapshot{}, false
	}
	symbol := line[start+len("hq_str_") : eq]
	code := symbol
	if len(symbol) > 2 {
		code = symbol[2:]
	}

	quoted := strings.Trim(strings.TrimSpace(line[eq+1:]), "\";")
	fields := strings.Split(quoted, ",")
	if len(fields) < 10 {
		return "", domain.QuoteSnapshot{}, false
	}

	f := func(i int) float64 {
		v, _ := strconv.ParseFloat(fields[i], 64)
		return v
	}
	snap := domain.QuoteSnapshot{
		Ticker:        code,
		Open:          f(1),
		PreviousClose: f(2),
		Close:         f(3),
		High:          f(4),
		Low:           f(5),
		Volume:        f(8),
		Value:         f(9),
		SessionTime:   time.Now().UTC(),
	}
	return code, snap, true
}
