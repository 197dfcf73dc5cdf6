/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTradingDays(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want []time.Time
	}{
		{
			// Jan 5 2026 is a Monday, Jan 11 a Sunday
			name: "full week drops the weekend",
			from: day(5),
			to:   day(11),
			want: []time.Time{day(5), day(6), day(7), day(8), day(9)},
		},
		{
			name: "weekend only",
			from: day(10),
			to:   day(11),
			want: nil,
		},
		{
			name: "single trading day",
			from: day(7),
			to:   day(7),
			want: []time.Time{day(7)},
		},
		{
			name: "inverted range",
			from: day(9),
			to:   day(5),
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TradingDays(tc.from, tc.to)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d days; want %d (%v)", len(got), len(tc.want),
					got)
			}
			for i := range got {
				if !got[i].Equal(tc.want[i]) {
					t.Errorf("day[%d] = %v; want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestBhavcopyRange(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			paths = append(paths, r.URL.Path)
			mu.Unlock()

			// Wednesday is a holiday in this fixture; its report 404s
			if strings.Contains(r.URL.Path, "07JAN2026") {
				http.NotFound(w, r)
				return
			}
			name := strings.TrimSuffix(filepath.Base(r.URL.Path), ".zip")
			w.Write(zipWith(t, name, []byte(bhavCSV)))
		}))
	defer srv.Close()

	dir := t.TempDir()
	c := newArchiveClient(t, srv)

	var progress []int
	res := c.BhavcopyRange(context.Background(),
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
		dir, 2,
		func(done, total int) { progress = append(progress, done*100+total) })

	if len(res.Saved) != 4 {
		t.Errorf("saved %d reports; want 4 (%v)", len(res.Saved), res.Saved)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("failed %d dates; want 1 (%v)", len(res.Failed), res.Failed)
	}
	if want := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC); !res.Failed[0].Equal(want) {
		t.Errorf("failed date %v; want %v", res.Failed[0], want)
	}

	// saved paths come back sorted and the files really exist
	for i, p := range res.Saved {
		if i > 0 && res.Saved[i-1] > p {
			t.Errorf("saved paths not sorted: %v", res.Saved)
			break
		}
	}
	for _, p := range res.Saved {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("saved report missing: %v", err)
		}
	}

	// the weekend is never requested
	mu.Lock()
	for _, p := range paths {
		if strings.Contains(p, "10JAN2026") || strings.Contains(p, "11JAN2026") {
			t.Errorf("weekend report requested: %v", p)
		}
	}
	mu.Unlock()

	// progress fires once per day with a running count
	if len(progress) != 5 {
		t.Fatalf("progress invoked %d times; want 5", len(progress))
	}
	if progress[len(progress)-1] != 5*100+5 {
		t.Errorf("final progress %v; want done=5 total=5",
			progress[len(progress)-1])
	}
}

func TestBhavcopyRangeEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %v", r.URL.Path)
		}))
	defer srv.Close()

	c := newArchiveClient(t, srv)
	res := c.BhavcopyRange(context.Background(),
		time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), // Saturday
		time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), // Sunday
		t.TempDir(), 0, nil)

	if len(res.Saved) != 0 || len(res.Failed) != 0 {
		t.Errorf("weekend-only range produced results: %+v", res)
	}
}
