/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sparkfin/nsedata/internal"
)

const (
	historyStockPath       = "/historical/cm/equity"
	historyDerivativesPath = "/historical/fo/derivatives"

	// The history endpoints silently truncate ranges wider than this, so
	// long queries are split into windows and concatenated.
	historyWindowDays = 50

	// DefaultHistoryTimeout bounds each history page request; these pages
	// are bigger and slower than the live endpoints.
	DefaultHistoryTimeout = 15 * time.Second
)

// HistoryClient fetches historical price series from the API host. It needs
// the same cookie bootstrap as the live client, so it shares the session
// construction (and its options).
type HistoryClient struct {
	http *resty.Client
}

// NewHistoryClient establishes a session against the API host for
// historical queries. It accepts the same options as NewLiveClient.
func NewHistoryClient(ctx context.Context, opts ...LiveOption) (*HistoryClient, error) {
	cfg := defaultLiveConfig()
	cfg.timeout = DefaultHistoryTimeout
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := newSession(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &HistoryClient{http: client}, nil
}

// StockRecord is one day of historical trading data for an equity.
type StockRecord struct {
	Date      time.Time
	Symbol    string
	Series    string
	Open      float64
	High      float64
	Low       float64
	PrevClose float64
	LTP       float64
	Close     float64
	VWAP      float64
	Volume    int64
	Value     float64
	Trades    int64
}

// The history endpoint emits verbose CH_-prefixed field names with a
// free-form timestamp; map them onto the record here.
func (r *StockRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		Timestamp string  `json:"CH_TIMESTAMP"`
		Symbol    string  `json:"CH_SYMBOL"`
		Series    string  `json:"CH_SERIES"`
		Open      float64 `json:"CH_OPENING_PRICE"`
		High      float64 `json:"CH_TRADE_HIGH_PRICE"`
		Low       float64 `json:"CH_TRADE_LOW_PRICE"`
		PrevClose float64 `json:"CH_PREVIOUS_CLS_PRICE"`
		LTP       float64 `json:"CH_LAST_TRADED_PRICE"`
		Close     float64 `json:"CH_CLOSING_PRICE"`
		VWAP      float64 `json:"VWAP"`
		Volume    int64   `json:"CH_TOT_TRADED_QTY"`
		Value     float64 `json:"CH_TOT_TRADED_VAL"`
		Trades    int64   `json:"CH_TOTAL_TRADES"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("StockRecord unmarshal: %w", err)
	}

	date, err := internal.ParseDateOrZero(aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing StockRecord.Date: %w", err)
	}

	r.Date = date
	r.Symbol = aux.Symbol
	r.Series = aux.Series
	r.Open = aux.Open
	r.High = aux.High
	r.Low = aux.Low
	r.PrevClose = aux.PrevClose
	r.LTP = aux.LTP
	r.Close = aux.Close
	r.VWAP = aux.VWAP
	r.Volume = aux.Volume
	r.Value = aux.Value
	r.Trades = aux.Trades
	return nil
}

// DerivativeRecord is one day of historical trading data for a futures or
// options contract.
type DerivativeRecord struct {
	Date        time.Time
	Symbol      string
	Expiry      time.Time
	Instrument  string
	OptionType  string
	StrikePrice float64
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Settle      float64
	Volume      int64
	Value       float64
	OpenInt     int64
	ChangeInOI  int64
	Underlying  float64
}

// The derivatives history endpoint emits FH_-prefixed fields, numerics
// included, as strings.
func (r *DerivativeRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		Timestamp   string `json:"FH_TIMESTAMP"`
		Symbol      string `json:"FH_SYMBOL"`
		Expiry      string `json:"FH_EXPIRY_DT"`
		Instrument  string `json:"FH_INSTRUMENT"`
		OptionType  string `json:"FH_OPTION_TYPE"`
		StrikePrice string `json:"FH_STRIKE_PRICE"`
		Open        string `json:"FH_OPENING_PRICE"`
		High        string `json:"FH_TRADE_HIGH_PRICE"`
		Low         string `json:"FH_TRADE_LOW_PRICE"`
		Close       string `json:"FH_CLOSING_PRICE"`
		Settle      string `json:"FH_SETTLE_PRICE"`
		Volume      string `json:"FH_TOT_TRADED_QTY"`
		Value       string `json:"FH_TOT_TRADED_VAL"`
		OpenInt     string `json:"FH_OPEN_INT"`
		ChangeInOI  string `json:"FH_CHANGE_IN_OI"`
		Underlying  string `json:"FH_UNDERLYING_VALUE"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("DerivativeRecord unmarshal: %w", err)
	}

	date, err := internal.ParseDateOrZero(aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing DerivativeRecord.Date: %w", err)
	}
	expiry, err := internal.ParseDateOrZero(aux.Expiry)
	if err != nil {
		return fmt.Errorf("parsing DerivativeRecord.Expiry: %w", err)
	}

	r.Date = date
	r.Symbol = aux.Symbol
	r.Expiry = expiry
	r.Instrument = aux.Instrument
	r.OptionType = aux.OptionType
	r.StrikePrice = floatOrZero(aux.StrikePrice)
	r.Open = floatOrZero(aux.Open)
	r.High = floatOrZero(aux.High)
	r.Low = floatOrZero(aux.Low)
	r.Close = floatOrZero(aux.Close)
	r.Settle = floatOrZero(aux.Settle)
	r.Volume = intOrZero(aux.Volume)
	r.Value = floatOrZero(aux.Value)
	r.OpenInt = intOrZero(aux.OpenInt)
	r.ChangeInOI = intOrZero(aux.ChangeInOI)
	r.Underlying = floatOrZero(aux.Underlying)
	return nil
}

func floatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func intOrZero(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

type dateWindow struct {
	from time.Time
	to   time.Time
}

// dateWindows splits an inclusive range into consecutive windows of at most
// days days each.
func dateWindows(from, to time.Time, days int) []dateWindow {
	var windows []dateWindow
	for start := from; !start.After(to); start = start.AddDate(0, 0, days) {
		end := start.AddDate(0, 0, days-1)
		if end.After(to) {
			end = to
		}
		windows = append(windows, dateWindow{from: start, to: end})
	}
	return windows
}

// getPage fetches one history page and decodes its data array into out.
func (h *HistoryClient) getPage(ctx context.Context, path, what string,
	params map[string]string, out any) error {

	resp, err := h.http.R().SetContext(ctx).SetQueryParams(params).Get(path)
	if err != nil {
		return requestError("fetch "+what, err)
	}
	if resp.IsError() {
		return statusError("fetch "+what, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return decodeError(what, err)
	}
	return nil
}

// StockSeries returns the daily price series of an equity over an inclusive
// date range, oldest window first. Empty series means EQ.
func (h *HistoryClient) StockSeries(ctx context.Context, symbol, series string,
	from, to time.Time) ([]StockRecord, error) {

	if symbol == "" {
		return nil, invalidArgsError("stock history requires a symbol")
	}
	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil, invalidArgsError("stock history requires from <= to")
	}
	if series == "" {
		series = "EQ"
	}

	var records []StockRecord
	for _, w := range dateWindows(from, to, historyWindowDays) {
		params := map[string]string{
			"symbol": symbol,
			"series": `["` + series + `"]`,
			"from":   internal.FormatWireDate(w.from),
			"to":     internal.FormatWireDate(w.to),
		}

		var page struct {
			Data []StockRecord `json:"data"`
		}
		if err := h.getPage(ctx, historyStockPath, "stock history", params,
			&page); err != nil {
			return nil, err
		}
		records = append(records, page.Data...)
	}

	return records, nil
}

// DerivativesQuery describes one historical derivatives series request.
type DerivativesQuery struct {
	Symbol     string
	From       time.Time
	To         time.Time
	Expiry     time.Time
	Instrument string // FUTSTK, FUTIDX, OPTSTK or OPTIDX

	// Options only
	StrikePrice float64
	OptionType  string // CE or PE
}

// DerivativesSeries returns the daily series for one futures/options
// contract over an inclusive date range.
func (h *HistoryClient) DerivativesSeries(ctx context.Context,
	q DerivativesQuery) ([]DerivativeRecord, error) {

	if q.Symbol == "" || q.Instrument == "" {
		return nil, invalidArgsError(
			"derivatives history requires symbol and instrument")
	}
	if q.From.IsZero() || q.To.IsZero() || q.From.After(q.To) {
		return nil, invalidArgsError("derivatives history requires from <= to")
	}
	if q.Expiry.IsZero() {
		return nil, invalidArgsError("derivatives history requires an expiry date")
	}
	isOption := strings.HasPrefix(q.Instrument, "OPT")
	if isOption && q.OptionType != "CE" && q.OptionType != "PE" {
		return nil, invalidArgsError(
			"option instruments require option type CE or PE")
	}

	var records []DerivativeRecord
	for _, w := range dateWindows(q.From, q.To, historyWindowDays) {
		params := map[string]string{
			"symbol":         q.Symbol,
			"instrumentType": q.Instrument,
			"expiryDate":     q.Expiry.Format("02-Jan-2006"),
			"from":           internal.FormatWireDate(w.from),
			"to":             internal.FormatWireDate(w.to),
		}
		if isOption {
			params["strikePrice"] = strconv.FormatFloat(q.StrikePrice, 'f', -1, 64)
			params["optionType"] = q.OptionType
		}

		var page struct {
			Data []DerivativeRecord `json:"data"`
		}
		if err := h.getPage(ctx, historyDerivativesPath, "derivatives history",
			params, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Data...)
	}

	return records, nil
}

var stockCSVHeader = []string{"DATE", "SYMBOL", "SERIES", "OPEN", "HIGH",
	"LOW", "PREV_CLOSE", "LTP", "CLOSE", "VWAP", "VOLUME", "VALUE", "TRADES"}

var derivativesCSVHeader = []string{"DATE", "SYMBOL", "EXPIRY", "INSTRUMENT",
	"OPTION_TYPE", "STRIKE_PRICE", "OPEN", "HIGH", "LOW", "CLOSE", "SETTLE",
	"VOLUME", "VALUE", "OPEN_INT", "CHANGE_IN_OI", "UNDERLYING"}

// StockCSV fetches the stock series and writes it as CSV. When output is
// empty a filename is derived from the query; the path written is returned.
func (h *HistoryClient) StockCSV(ctx context.Context, symbol, series string,
	from, to time.Time, output string) (string, error) {

	records, err := h.StockSeries(ctx, symbol, series, from, to)
	if err != nil {
		return "", err
	}

	if output == "" {
		output = fmt.Sprintf("%v-%v-%v.csv", symbol,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format("2006-01-02"),
			r.Symbol,
			r.Series,
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.PrevClose),
			formatFloat(r.LTP),
			formatFloat(r.Close),
			formatFloat(r.VWAP),
			strconv.FormatInt(r.Volume, 10),
			formatFloat(r.Value),
			strconv.FormatInt(r.Trades, 10),
		})
	}

	return output, writeCSV(output, stockCSVHeader, rows)
}

// DerivativesCSV fetches the derivatives series and writes it as CSV. When
// output is empty a filename is derived from the query; the path written is
// returned.
func (h *HistoryClient) DerivativesCSV(ctx context.Context, q DerivativesQuery,
	output string) (string, error) {

	records, err := h.DerivativesSeries(ctx, q)
	if err != nil {
		return "", err
	}

	if output == "" {
		output = fmt.Sprintf("%v-%v-%v-%v.csv", q.Symbol, q.Instrument,
			q.From.Format("2006-01-02"), q.To.Format("2006-01-02"))
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format("2006-01-02"),
			r.Symbol,
			r.Expiry.Format("2006-01-02"),
			r.Instrument,
			r.OptionType,
			formatFloat(r.StrikePrice),
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			formatFloat(r.Settle),
			strconv.FormatInt(r.Volume, 10),
			formatFloat(r.Value),
			strconv.FormatInt(r.OpenInt, 10),
			strconv.FormatInt(r.ChangeInOI, 10),
			formatFloat(r.Underlying),
		})
	}

	return output, writeCSV(output, derivativesCSVHeader, rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %v: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("unable to write %v: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("unable to write %v: %w", path, err)
	}
	w.Flush()

	return w.Error()
}
