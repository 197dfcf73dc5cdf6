/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package rbi scrapes the central bank's published policy rates (repo rate,
// CRR, SLR and friends) from its website, which has no JSON API.
package rbi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sparkfin/nsedata/internal"
)

// DefaultBaseURL is the central bank's public website; the current policy
// rates appear on the home page.
const DefaultBaseURL = "https://www.rbi.org.in"

const defaultTimeout = 15 * time.Second

// Client fetches policy rates. The zero value is not usable; construct with
// NewClient.
type Client struct {
	http    *http.Client
	baseURL string
}

// Option customizes client construction.
type Option func(*Client)

// WithBaseURL overrides the website root; mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a policy-rates client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}

	return c
}

// CurrentRates returns the rates published on the home page as a mapping
// from rate name to its displayed value (e.g. "Policy Repo Rate" ->
// "6.50%"). Values are returned as displayed; no numeric parsing.
func (c *Client) CurrentRates(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rbi rates (new): %w", err)
	}
	req.Header.Set("User-Agent", internal.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rbi rates (do): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to fetch rbi rates (http): %v",
			resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to parse rbi rates page: %w", err)
	}

	rates := parseRates(doc)
	if len(rates) == 0 {
		return nil, fmt.Errorf("no rates found on %v; page layout may have changed",
			c.baseURL)
	}

	return rates, nil
}

// parseRates walks every two-cell table row and collects name/value pairs.
// The rates sidebar is the only two-column table on the home page, but the
// name check keeps navigation tables out should that change.
func parseRates(doc *goquery.Document) map[string]string {
	rates := make(map[string]string)

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		name := normalizeText(cells.Eq(0).Text())
		value := normalizeText(cells.Eq(1).Text())
		if name == "" || value == "" {
			return
		}
		// value cells carry a figure, optionally a percent sign or a
		// parenthesized note; skip rows whose "value" is prose
		if !strings.ContainsAny(value, "0123456789") {
			return
		}
		rates[strings.TrimSuffix(name, ":")] = value
	})

	return rates
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
