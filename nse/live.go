/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/sparkfin/nsedata/internal"
)

const (
	// DefaultBaseURL is the exchange's JSON API host.
	DefaultBaseURL = "https://www.nseindia.com/api"

	// DefaultPageURL is the landing page visited once at construction to
	// acquire the session cookies the API host insists on.
	DefaultPageURL = "https://www.nseindia.com/get-quotes/equity?symbol=LT"

	// DefaultTimeout bounds each live request. The exchange tends to hold
	// connections open rather than 404 when data isn't published yet, so a
	// short deadline doubles as a "nothing there" signal.
	DefaultTimeout = 5 * time.Second

	// DefaultMemoTTL is how long a memoized query result is served before
	// the next call goes back upstream.
	DefaultMemoTTL = 5 * time.Second
)

// browserHeaders mirrors what a stock desktop browser sends; the exchange
// blocks bare clients.
var browserHeaders = map[string]string{
	"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"accept-language":           "en-GB,en-US;q=0.9,en;q=0.8",
	"cache-control":             "no-cache",
	"pragma":                    "no-cache",
	"priority":                  "u=0, i",
	"sec-ch-ua":                 `"Google Chrome";v="129", "Not=A?Brand";v="8", "Chromium";v="129"`,
	"sec-ch-ua-mobile":          "?0",
	"sec-ch-ua-platform":        `"macOS"`,
	"sec-fetch-dest":            "document",
	"sec-fetch-mode":            "navigate",
	"sec-fetch-site":            "none",
	"sec-fetch-user":            "?1",
	"upgrade-insecure-requests": "1",
	"User-Agent":                internal.UserAgent,
}

// defaultMemoMethods mirrors which queries benefit from memoization in
// practice: everything except LiveIndex (callers page through distinct
// indices) and CorporateAnnouncements (parameterized filters).
var defaultMemoMethods = []string{
	"StockQuote",
	"StockQuoteFNO",
	"TradeInfo",
	"MarketStatus",
	"ChartData",
	"TickData",
	"MarketTurnover",
	"EqDerivativeTurnover",
	"AllIndices",
	"IndexOptionChain",
	"EquitiesOptionChain",
	"CurrencyOptionChain",
	"LiveFNO",
	"PreOpenMarket",
	"HolidayList",
}

type liveConfig struct {
	baseURL     string
	pageURL     string
	timeout     time.Duration
	memoTTL     time.Duration
	memoMethods []string
	transport   http.RoundTripper
}

// LiveOption customizes client construction.
type LiveOption func(*liveConfig)

// WithBaseURL overrides the API host; mainly for tests.
func WithBaseURL(u string) LiveOption {
	return func(cfg *liveConfig) { cfg.baseURL = u }
}

// WithPageURL overrides the landing page visited to establish the session.
func WithPageURL(u string) LiveOption {
	return func(cfg *liveConfig) { cfg.pageURL = u }
}

// WithTimeout overrides the per-request deadline.
func WithTimeout(d time.Duration) LiveOption {
	return func(cfg *liveConfig) { cfg.timeout = d }
}

// WithMemoTTL overrides the memoization window. A non-positive value
// disables memoization entirely.
func WithMemoTTL(d time.Duration) LiveOption {
	return func(cfg *liveConfig) { cfg.memoTTL = d }
}

// WithMemoMethods replaces the default memoization allow-list with an
// explicit set of method names.
func WithMemoMethods(methods ...string) LiveOption {
	return func(cfg *liveConfig) { cfg.memoMethods = methods }
}

// WithTransport replaces the underlying RoundTripper. When set, the
// cloudflare bypass wrapper is skipped; used by tests and by callers that
// route through a proxy.
func WithTransport(rt http.RoundTripper) LiveOption {
	return func(cfg *liveConfig) { cfg.transport = rt }
}

// LiveClient owns one authenticated session against the exchange's API host
// and exposes a typed query method per logical endpoint. It performs
// blocking, synchronous I/O and holds mutable cookie state; confine an
// instance to one goroutine or synchronize externally (the memo cache itself
// is mutex-guarded).
type LiveClient struct {
	http *resty.Client
	memo *memoCache
}

func defaultLiveConfig() liveConfig {
	return liveConfig{
		baseURL:     DefaultBaseURL,
		pageURL:     DefaultPageURL,
		timeout:     DefaultTimeout,
		memoTTL:     DefaultMemoTTL,
		memoMethods: defaultMemoMethods,
	}
}

// newSession builds a cookie-jar resty session with the browser header
// bundle and visits the landing page so subsequent API requests carry the
// expected cookie state. Shared by the live and history clients.
func newSession(ctx context.Context, cfg liveConfig) (*resty.Client, error) {
	client := resty.New()
	client.SetBaseURL(cfg.baseURL)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, requestError("initialize session (jar)", err)
	}
	client.SetCookieJar(jar)

	if cfg.transport != nil {
		client.GetClient().Transport = cfg.transport
	} else {
		client.GetClient().Transport =
			cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeaders(browserHeaders)
	client.SetTimeout(cfg.timeout)

	resp, err := client.R().SetContext(ctx).Get(cfg.pageURL)
	if err != nil {
		return nil, requestError("initialize session (visit)", err)
	}
	if resp.IsError() {
		return nil, statusError("initialize session", resp.StatusCode())
	}

	return client, nil
}

// NewLiveClient establishes the session (including the landing-page visit)
// and returns a ready client. It fails rather than hand back an
// uninitialized session: the API host rejects requests lacking the cookie
// state acquired from that first visit.
func NewLiveClient(ctx context.Context, opts ...LiveOption) (*LiveClient, error) {
	cfg := defaultLiveConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := newSession(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &LiveClient{
		http: client,
		memo: newMemoCache(cfg.memoTTL, cfg.memoMethods),
	}, nil
}

// get resolves the route against the table, issues the GET with the session
// cookies/headers plus the given query parameters, and decodes the JSON
// body. The decoded value is returned as-is with no schema validation.
func (c *LiveClient) get(ctx context.Context, route Route,
	params map[string]string) (any, error) {

	path, ok := routePaths[route]
	if !ok {
		return nil, unknownRouteError(route)
	}

	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, requestError("fetch "+route.String(), err)
	}
	if resp.IsError() {
		return nil, statusError("fetch "+route.String(), resp.StatusCode())
	}

	var decoded any
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, decodeError(route.String(), err)
	}

	return decoded, nil
}

// StockQuote returns the current quote for an equity symbol.
func (c *LiveClient) StockQuote(ctx context.Context, symbol string) (any, error) {
	return c.memo.do("StockQuote", []string{symbol}, func() (any, error) {
		return c.get(ctx, RouteStockQuote, map[string]string{"symbol": symbol})
	})
}

// StockQuoteFNO returns the derivative quote for a stock symbol.
func (c *LiveClient) StockQuoteFNO(ctx context.Context, symbol string) (any, error) {
	return c.memo.do("StockQuoteFNO", []string{symbol}, func() (any, error) {
		return c.get(ctx, RouteStockDerivativeQuote,
			map[string]string{"symbol": symbol})
	})
}

// TradeInfo returns the trade-information section of an equity quote.
func (c *LiveClient) TradeInfo(ctx context.Context, symbol string) (any, error) {
	return c.memo.do("TradeInfo", []string{symbol}, func() (any, error) {
		return c.get(ctx, RouteStockQuote,
			map[string]string{"symbol": symbol, "section": "trade_info"})
	})
}

// MarketStatus returns the open/close state of each market segment.
func (c *LiveClient) MarketStatus(ctx context.Context) (any, error) {
	return c.memo.do("MarketStatus", nil, func() (any, error) {
		return c.get(ctx, RouteMarketStatus, nil)
	})
}

// ChartData returns the intraday chart series for a symbol. With indices
// set, symbol is treated as an index name rather than an equity.
func (c *LiveClient) ChartData(ctx context.Context, symbol string,
	indices bool) (any, error) {

	return c.memo.do("ChartData",
		[]string{symbol, strconv.FormatBool(indices)}, func() (any, error) {
			params := map[string]string{"index": symbol + "EQN"}
			if indices {
				params["index"] = symbol
				params["indices"] = "true"
			}
			return c.get(ctx, RouteChartData, params)
		})
}

// TickData is an alias for ChartData; the exchange vends tick-level data on
// the same endpoint.
func (c *LiveClient) TickData(ctx context.Context, symbol string,
	indices bool) (any, error) {

	return c.memo.do("TickData",
		[]string{symbol, strconv.FormatBool(indices)}, func() (any, error) {
			return c.ChartData(ctx, symbol, indices)
		})
}

// MarketTurnover returns turnover across market segments.
func (c *LiveClient) MarketTurnover(ctx context.Context) (any, error) {
	return c.memo.do("MarketTurnover", nil, func() (any, error) {
		return c.get(ctx, RouteMarketTurnover, nil)
	})
}

// EqDerivativeTurnover returns equity-derivative turnover for the given
// contract type; empty means all contracts.
func (c *LiveClient) EqDerivativeTurnover(ctx context.Context,
	contractType string) (any, error) {

	if contractType == "" {
		contractType = "allcontracts"
	}
	return c.memo.do("EqDerivativeTurnover", []string{contractType},
		func() (any, error) {
			return c.get(ctx, RouteEquityDerivativeTurnover,
				map[string]string{"index": contractType})
		})
}

// AllIndices returns a snapshot of every published index.
func (c *LiveClient) AllIndices(ctx context.Context) (any, error) {
	return c.memo.do("AllIndices", nil, func() (any, error) {
		return c.get(ctx, RouteAllIndices, nil)
	})
}

// LiveIndex returns the live snapshot of one index and its constituents;
// empty symbol means NIFTY 50. Not memoized by default.
func (c *LiveClient) LiveIndex(ctx context.Context, symbol string) (any, error) {
	if symbol == "" {
		symbol = "NIFTY 50"
	}
	return c.get(ctx, RouteLiveIndex, map[string]string{"index": symbol})
}

// IndexOptionChain returns the option chain for an index; empty symbol means
// NIFTY.
func (c *LiveClient) IndexOptionChain(ctx context.Context, symbol string) (any, error) {
	if symbol == "" {
		symbol = "NIFTY"
	}
	return c.memo.do("IndexOptionChain", []string{symbol}, func() (any, error) {
		return c.get(ctx, RouteIndexOptionChain,
			map[string]string{"symbol": symbol})
	})
}

// EquitiesOptionChain returns the option chain for a stock symbol.
func (c *LiveClient) EquitiesOptionChain(ctx context.Context, symbol string) (any, error) {
	return c.memo.do("EquitiesOptionChain", []string{symbol}, func() (any, error) {
		return c.get(ctx, RouteEquityOptionChain,
			map[string]string{"symbol": symbol})
	})
}

// CurrencyOptionChain returns the option chain for a currency pair; empty
// symbol means USDINR.
func (c *LiveClient) CurrencyOptionChain(ctx context.Context, symbol string) (any, error) {
	if symbol == "" {
		symbol = "USDINR"
	}
	return c.memo.do("CurrencyOptionChain", []string{symbol}, func() (any, error) {
		return c.get(ctx, RouteCurrencyOptionChain,
			map[string]string{"symbol": symbol})
	})
}

// LiveFNO returns the live snapshot of all securities trading in the F&O
// segment; a thin delegation to LiveIndex with the segment's special-case
// symbol.
func (c *LiveClient) LiveFNO(ctx context.Context) (any, error) {
	return c.memo.do("LiveFNO", nil, func() (any, error) {
		return c.LiveIndex(ctx, "SECURITIES IN F&O")
	})
}

// PreOpenMarket returns the pre-open session snapshot for a market key;
// empty key means NIFTY.
func (c *LiveClient) PreOpenMarket(ctx context.Context, key string) (any, error) {
	if key == "" {
		key = "NIFTY"
	}
	return c.memo.do("PreOpenMarket", []string{key}, func() (any, error) {
		return c.get(ctx, RoutePreOpenMarket, map[string]string{"key": key})
	})
}

// HolidayList returns the trading holiday calendar.
func (c *LiveClient) HolidayList(ctx context.Context) (any, error) {
	return c.memo.do("HolidayList", nil, func() (any, error) {
		return c.get(ctx, RouteHolidayList, nil)
	})
}

// CorporateAnnouncements returns corporate filing announcements for a
// segment (empty means equities), optionally filtered by a date range and a
// symbol. The date filters must be supplied together: a lone from or to is
// rejected with ErrInvalidArguments rather than silently dropped. Not
// memoized by default.
func (c *LiveClient) CorporateAnnouncements(ctx context.Context, segment string,
	fromDate, toDate time.Time, symbol string) (any, error) {

	if fromDate.IsZero() != toDate.IsZero() {
		return nil, invalidArgsError(
			"corporate announcements requires both from_date and to_date or neither")
	}
	if segment == "" {
		segment = "equities"
	}

	params := map[string]string{"index": segment}
	if !fromDate.IsZero() {
		params["from_date"] = internal.FormatWireDate(fromDate)
		params["to_date"] = internal.FormatWireDate(toDate)
	}
	if symbol != "" {
		params["symbol"] = symbol
	}

	return c.get(ctx, RouteCorporateAnnouncements, params)
}
