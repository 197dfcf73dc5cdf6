/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

// Route identifies a logical endpoint on the exchange's JSON API host.
// Using a fixed enumeration (instead of free-form strings) means a reference
// to a nonexistent endpoint can't survive a compile.
type Route int

const (
	RouteStockMeta Route = iota
	RouteStockQuote
	RouteStockDerivativeQuote
	RouteMarketStatus
	RouteChartData
	RouteMarketTurnover
	RouteEquityDerivativeTurnover
	RouteAllIndices
	RouteLiveIndex
	RouteIndexOptionChain
	RouteEquityOptionChain
	RouteCurrencyOptionChain
	RoutePreOpenMarket
	RouteHolidayList
	RouteCorporateAnnouncements
)

// routePaths maps each route to its path suffix under the API base URL.
var routePaths = map[Route]string{
	RouteStockMeta:                "/equity-meta-info",
	RouteStockQuote:               "/quote-equity",
	RouteStockDerivativeQuote:     "/quote-derivative",
	RouteMarketStatus:             "/marketStatus",
	RouteChartData:                "/chart-databyindex",
	RouteMarketTurnover:           "/market-turnover",
	RouteEquityDerivativeTurnover: "/equity-stock",
	RouteAllIndices:               "/allIndices",
	RouteLiveIndex:                "/equity-stockIndices",
	RouteIndexOptionChain:         "/option-chain-indices",
	RouteEquityOptionChain:        "/option-chain-equities",
	RouteCurrencyOptionChain:      "/option-chain-currency",
	RoutePreOpenMarket:            "/market-data-pre-open",
	RouteHolidayList:              "/holiday-master?type=trading",
	RouteCorporateAnnouncements:   "/corporate-announcements",
}

var routeNames = map[Route]string{
	RouteStockMeta:                "stock_meta",
	RouteStockQuote:               "stock_quote",
	RouteStockDerivativeQuote:     "stock_derivative_quote",
	RouteMarketStatus:             "market_status",
	RouteChartData:                "chart_data",
	RouteMarketTurnover:           "market_turnover",
	RouteEquityDerivativeTurnover: "equity_derivative_turnover",
	RouteAllIndices:               "all_indices",
	RouteLiveIndex:                "live_index",
	RouteIndexOptionChain:         "index_option_chain",
	RouteEquityOptionChain:        "equity_option_chain",
	RouteCurrencyOptionChain:      "currency_option_chain",
	RoutePreOpenMarket:            "pre_open_market",
	RouteHolidayList:              "holiday_list",
	RouteCorporateAnnouncements:   "corporate_announcements",
}

func (r Route) String() string {
	if name, ok := routeNames[r]; ok {
		return name
	}
	return "?"
}
