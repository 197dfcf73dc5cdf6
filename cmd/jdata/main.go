/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sparkfin/nsedata/nse"
	"github.com/sparkfin/nsedata/rbi"
)

//go:embed help.txt
var helpText string

// cmdHandler defines the signature for command handler functions.
type cmdHandler func(ctx context.Context, args []string)

// commands maps command names to their respective handler functions.
var commands = map[string]cmdHandler{
	"help":         handleHelp,
	"bhavcopy":     handleBhavcopy,
	"fobhavcopy":   handleFOBhavcopy,
	"fullbhavcopy": handleFullBhavcopy,
	"stock":        handleStock,
	"derivatives":  handleDerivatives,
	"quote":        handleQuote,
	"status":       handleStatus,
	"holidays":     handleHolidays,
	"rates":        handleRates,
}

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if handler, ok := commands[cmd]; ok {
		handler(ctx, os.Args[2:])
	} else {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf("%v", helpText)
}

func handleHelp(ctx context.Context, args []string) {
	usage()
}

func parseDateFlag(fs *flag.FlagSet, name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -%v date %q; expected yyyy-mm-dd\n",
			name, value)
		fs.Usage()
		os.Exit(1)
	}
	return d
}

func handleBhavcopy(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("bhavcopy", flag.ExitOnError)
	dir := fs.String("dir", "", "Directory to save reports into")
	fromStr := fs.String("from", "", "From date (yyyy-mm-dd)")
	toStr := fs.String("to", "", "To date (yyyy-mm-dd)")
	workers := fs.Int("workers", 4, "Concurrent downloads for ranges")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Please provide a valid -dir path.")
		fs.Usage()
		os.Exit(1)
	}

	from := parseDateFlag(fs, "from", *fromStr)
	to := parseDateFlag(fs, "to", *toStr)

	archive := nse.NewArchiveClient(ctx)

	// single day: today, or the one date given
	if to.IsZero() {
		dt := from
		if dt.IsZero() {
			dt = time.Now()
		}
		path, err := archive.BhavcopySave(ctx, dt, *dir)
		if err != nil {
			if errors.Is(err, nse.ErrTimeout) {
				log.Fatalf("Timeout while downloading; %v may be a holiday or the file is not ready yet",
					dt.Format("2006-01-02"))
			}
			log.Fatalf("Error downloading bhavcopy for %v: %v",
				dt.Format("2006-01-02"), err)
		}
		fmt.Printf("Saved to : %v\n", path)
		return
	}
	if from.IsZero() {
		fmt.Fprintln(os.Stderr, "Please provide -from when -to is given.")
		fs.Usage()
		os.Exit(1)
	}

	days := nse.TradingDays(from, to)
	if len(days) == 0 {
		fmt.Println("No trading days in the given range.")
		return
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(os.Stdout)
	go pw.Render()

	tracker := progress.Tracker{
		Message: "Downloading bhavcopies",
		Total:   int64(len(days)),
	}
	pw.AppendTracker(&tracker)

	res := archive.BhavcopyRange(ctx, from, to, *dir, *workers,
		func(done, total int) {
			tracker.SetValue(int64(done))
		})

	tracker.MarkAsDone()
	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("Saved %d report(s) to : %v\n", len(res.Saved), *dir)
	if len(res.Failed) > 0 {
		fmt.Println("Failed to download for below dates, these might be holidays, please check -")
		for _, d := range res.Failed {
			fmt.Println(d.Format("2006-01-02"))
		}
	}
}

func handleFOBhavcopy(ctx context.Context, args []string) {
	handleSingleReport(ctx, args, "fobhavcopy",
		func(ctx context.Context, archive *nse.ArchiveClient, dt time.Time,
			dir string) (string, error) {
			return archive.FOBhavcopySave(ctx, dt, dir)
		})
}

func handleFullBhavcopy(ctx context.Context, args []string) {
	handleSingleReport(ctx, args, "fullbhavcopy",
		func(ctx context.Context, archive *nse.ArchiveClient, dt time.Time,
			dir string) (string, error) {
			return archive.FullBhavcopySave(ctx, dt, dir)
		})
}

func handleSingleReport(ctx context.Context, args []string, name string,
	save func(context.Context, *nse.ArchiveClient, time.Time, string) (string, error)) {

	fs := flag.NewFlagSet(name, flag.ExitOnError)
	dir := fs.String("dir", "", "Directory to save the report into")
	dateStr := fs.String("date", "", "Report date (yyyy-mm-dd, default today)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Please provide a valid -dir path.")
		fs.Usage()
		os.Exit(1)
	}
	dt := parseDateFlag(fs, "date", *dateStr)
	if dt.IsZero() {
		dt = time.Now()
	}

	archive := nse.NewArchiveClient(ctx)
	path, err := save(ctx, archive, dt, *dir)
	if err != nil {
		if errors.Is(err, nse.ErrTimeout) {
			log.Fatalf("Timeout while downloading; %v may be a holiday or the file is not ready yet",
				dt.Format("2006-01-02"))
		}
		log.Fatalf("Error downloading report for %v: %v",
			dt.Format("2006-01-02"), err)
	}
	fmt.Printf("Saved to : %v\n", path)
}

func handleStock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("stock", flag.ExitOnError)
	symbol := fs.String("symbol", "", "Stock symbol")
	fromStr := fs.String("from", "", "From date (yyyy-mm-dd)")
	toStr := fs.String("to", "", "To date (yyyy-mm-dd)")
	series := fs.String("series", "EQ", "Series - EQ, BE etc.")
	output := fs.String("output", "", "Full path for output file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *symbol == "" || *fromStr == "" || *toStr == "" {
		fmt.Fprintln(os.Stderr, "Please provide -symbol, -from and -to.")
		fs.Usage()
		os.Exit(1)
	}
	from := parseDateFlag(fs, "from", *fromStr)
	to := parseDateFlag(fs, "to", *toStr)

	client, err := nse.NewHistoryClient(ctx)
	if err != nil {
		log.Fatalf("Error initializing session: %v", err)
	}
	path, err := client.StockCSV(ctx, *symbol, *series, from, to, *output)
	if err != nil {
		log.Fatalf("Error downloading stock data for %v: %v", *symbol, err)
	}
	fmt.Printf("Saved file to : %v\n", path)
}

func handleDerivatives(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("derivatives", flag.ExitOnError)
	symbol := fs.String("symbol", "", "Stock/Index symbol")
	fromStr := fs.String("from", "", "From date (yyyy-mm-dd)")
	toStr := fs.String("to", "", "To date (yyyy-mm-dd)")
	expiryStr := fs.String("expiry", "", "Expiry date (yyyy-mm-dd)")
	instru := fs.String("instru", "",
		"FUTSTK - Stock futures, FUTIDX - Index futures, OPTSTK - Stock options, OPTIDX - Index options")
	price := fs.Float64("price", 0, "Strike price (only for OPTSTK and OPTIDX)")
	ce := fs.Bool("ce", false, "Call option (only for OPTSTK and OPTIDX)")
	pe := fs.Bool("pe", false, "Put option (only for OPTSTK and OPTIDX)")
	output := fs.String("output", "", "Full path of output file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *symbol == "" || *fromStr == "" || *toStr == "" || *expiryStr == "" ||
		*instru == "" {
		fmt.Fprintln(os.Stderr,
			"Please provide -symbol, -from, -to, -expiry and -instru.")
		fs.Usage()
		os.Exit(1)
	}

	q := nse.DerivativesQuery{
		Symbol:      *symbol,
		From:        parseDateFlag(fs, "from", *fromStr),
		To:          parseDateFlag(fs, "to", *toStr),
		Expiry:      parseDateFlag(fs, "expiry", *expiryStr),
		Instrument:  *instru,
		StrikePrice: *price,
	}
	if *ce {
		q.OptionType = "CE"
	} else if *pe {
		q.OptionType = "PE"
	}

	client, err := nse.NewHistoryClient(ctx)
	if err != nil {
		log.Fatalf("Error initializing session: %v", err)
	}
	path, err := client.DerivativesCSV(ctx, q, *output)
	if err != nil {
		log.Fatalf("Error downloading derivatives data for %v: %v", *symbol, err)
	}
	fmt.Printf("Saved file to : %v\n", path)
}

func handleQuote(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	symbol := fs.String("symbol", "", "Stock symbol")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "Please provide a valid -symbol.")
		fs.Usage()
		os.Exit(1)
	}

	client, err := nse.NewLiveClient(ctx)
	if err != nil {
		log.Fatalf("Error initializing session: %v", err)
	}
	quote, err := client.StockQuote(ctx, *symbol)
	if err != nil {
		log.Fatalf("Error fetching quote for %v: %v", *symbol, err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Field", "Value"})
	rows := []struct {
		label string
		keys  []string
	}{
		{"Symbol", []string{"info", "symbol"}},
		{"Company", []string{"info", "companyName"}},
		{"Last Price", []string{"priceInfo", "lastPrice"}},
		{"Change", []string{"priceInfo", "change"}},
		{"% Change", []string{"priceInfo", "pChange"}},
		{"Open", []string{"priceInfo", "open"}},
		{"High", []string{"priceInfo", "intraDayHighLow", "max"}},
		{"Low", []string{"priceInfo", "intraDayHighLow", "min"}},
		{"Prev Close", []string{"priceInfo", "previousClose"}},
		{"VWAP", []string{"priceInfo", "vwap"}},
	}
	for _, row := range rows {
		if v := digString(quote, row.keys...); v != "" {
			t.AppendRow(table.Row{row.label, v})
		}
	}
	t.Render()
}

func handleStatus(ctx context.Context, args []string) {
	client, err := nse.NewLiveClient(ctx)
	if err != nil {
		log.Fatalf("Error initializing session: %v", err)
	}
	status, err := client.MarketStatus(ctx)
	if err != nil {
		log.Fatalf("Error fetching market status: %v", err)
	}

	states, ok := dig(status, "marketState").([]any)
	if !ok {
		log.Fatalf("Unexpected market status payload: %v", status)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Market", "Status", "Trade Date", "Index"})
	for _, s := range states {
		t.AppendRow(table.Row{
			digString(s, "market"),
			digString(s, "marketStatus"),
			digString(s, "tradeDate"),
			digString(s, "index"),
		})
	}
	t.Render()
}

func handleHolidays(ctx context.Context, args []string) {
	client, err := nse.NewLiveClient(ctx)
	if err != nil {
		log.Fatalf("Error initializing session: %v", err)
	}
	holidays, err := client.HolidayList(ctx)
	if err != nil {
		log.Fatalf("Error fetching holiday list: %v", err)
	}

	// CM is the equities (capital market) segment
	entries, ok := dig(holidays, "CM").([]any)
	if !ok {
		log.Fatalf("Unexpected holiday list payload: %v", holidays)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Date", "Day", "Description"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			digString(e, "tradingDate"),
			digString(e, "weekDay"),
			digString(e, "description"),
		})
	}
	t.Render()
}

func handleRates(ctx context.Context, args []string) {
	client := rbi.NewClient()
	rates, err := client.CurrentRates(ctx)
	if err != nil {
		log.Fatalf("Error fetching policy rates: %v", err)
	}

	names := make([]string, 0, len(rates))
	for name := range rates {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Rate", "Value"})
	for _, name := range names {
		t.AppendRow(table.Row{name, rates[name]})
	}
	t.Render()
}

// dig walks nested JSON objects by key, returning nil when the path doesn't
// exist.
func dig(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func digString(v any, keys ...string) string {
	switch x := dig(v, keys...).(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
