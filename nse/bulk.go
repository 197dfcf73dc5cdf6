/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultBulkWorkers = 4

// BulkResult reports the outcome of a date-range download. Failed dates are
// usually holidays or days whose report isn't published yet; the caller
// decides whether to surface or retry them.
type BulkResult struct {
	Saved  []string
	Failed []time.Time
}

// TradingDays expands an inclusive date range into the days the exchange
// can have traded on, skipping Saturdays and Sundays. Exchange holidays are
// not filtered here; they simply fail to download and land in
// BulkResult.Failed.
func TradingDays(from, to time.Time) []time.Time {
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

// BhavcopyRange downloads the equities settlement report for every trading
// day in the inclusive range into dir, fetching up to workers days
// concurrently. One failed date never aborts the batch: the date is
// recorded in the result and the remaining days proceed. progress, when
// non-nil, is invoked after each day completes (success or failure) with
// the running count and the total.
func (c *ArchiveClient) BhavcopyRange(ctx context.Context, from, to time.Time,
	dir string, workers int, progress func(done, total int)) BulkResult {

	days := TradingDays(from, to)
	if workers <= 0 {
		workers = defaultBulkWorkers
	}

	var mu sync.Mutex
	var res BulkResult
	done := 0

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, d := range days {
		g.Go(func() error {
			path, err := c.BhavcopySave(ctx, d, dir)

			mu.Lock()
			if err != nil {
				res.Failed = append(res.Failed, d)
			} else {
				res.Saved = append(res.Saved, path)
			}
			done++
			if progress != nil {
				progress(done, len(days))
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	sort.Strings(res.Saved)
	sort.Slice(res.Failed, func(i, j int) bool {
		return res.Failed[i].Before(res.Failed[j])
	})

	return res
}
