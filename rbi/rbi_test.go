/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package rbi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const ratesPage = `<html><body>
<table>
  <tr><td> Policy Repo Rate </td><td>6.50%</td></tr>
  <tr><td>Standing Deposit Facility Rate :</td><td>6.25%</td></tr>
  <tr><td>Marginal Standing Facility Rate</td><td>6.75%</td></tr>
  <tr><td>Bank Rate</td><td>6.75%</td></tr>
  <tr><td>CRR</td><td>4.50%</td></tr>
  <tr><td>SLR</td><td>18.00%</td></tr>
  <tr><td>Notes</td><td>see circular</td></tr>
</table>
<table>
  <tr><td>Home</td><td>About</td><td>Contact</td></tr>
</table>
</body></html>`

func TestParseRates(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ratesPage))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	rates := parseRates(doc)

	want := map[string]string{
		"Policy Repo Rate":                "6.50%",
		"Standing Deposit Facility Rate":  "6.25%",
		"Marginal Standing Facility Rate": "6.75%",
		"Bank Rate":                       "6.75%",
		"CRR":                             "4.50%",
		"SLR":                             "18.00%",
	}
	if len(rates) != len(want) {
		t.Errorf("parsed %d rates; want %d (%v)", len(rates), len(want), rates)
	}
	for name, value := range want {
		if rates[name] != value {
			t.Errorf("rates[%q] = %q; want %q", name, rates[name], value)
		}
	}
	if _, ok := rates["Notes"]; ok {
		t.Errorf("prose row was not filtered out")
	}
}

func TestCurrentRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ratesPage))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	rates, err := c.CurrentRates(context.Background())
	if err != nil {
		t.Fatalf("CurrentRates: %v", err)
	}
	if rates["Policy Repo Rate"] != "6.50%" {
		t.Errorf("Policy Repo Rate = %q; want %q", rates["Policy Repo Rate"], "6.50%")
	}
}

func TestCurrentRatesEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>maintenance</p></body></html>"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.CurrentRates(context.Background()); err == nil {
		t.Errorf("expected error for page without rates")
	}
}

func TestCurrentRatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.CurrentRates(context.Background())
	if err == nil {
		t.Fatalf("expected error for 503")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q does not mention status", err)
	}
}
