/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"strings"
	"sync"
	"time"
)

// memoCache is a time-boxed memoization layer over the live query methods.
// Entries are keyed by (method, argument tuple) and served back until they
// are older than ttl. Stale entries are overwritten on the next successful
// fetch rather than evicted, so the map grows with distinct argument
// combinations; acceptable for the short-lived interactive sessions this
// client is built for.
type memoCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	allowed map[string]bool
	entries map[string]memoEntry

	// now is replaceable in tests
	now func() time.Time
}

type memoEntry struct {
	value     any
	fetchedAt time.Time
}

// memoKeySep cannot occur in symbols or formatted arguments, so distinct
// argument tuples can never collide.
const memoKeySep = "\x1f"

func newMemoCache(ttl time.Duration, methods []string) *memoCache {
	allowed := make(map[string]bool, len(methods))
	for _, m := range methods {
		allowed[m] = true
	}
	return &memoCache{
		ttl:     ttl,
		allowed: allowed,
		entries: make(map[string]memoEntry),
		now:     time.Now,
	}
}

// do returns a cached value for (method, args) when one exists and is still
// fresh; otherwise it invokes fetch and caches the result. Failed fetches
// are never cached, so the next call retries against upstream. Methods
// outside the allow-list bypass the cache entirely.
func (m *memoCache) do(method string, args []string,
	fetch func() (any, error)) (any, error) {

	if m == nil || m.ttl <= 0 || !m.allowed[method] {
		return fetch()
	}

	key := method
	if len(args) > 0 {
		key += memoKeySep + strings.Join(args, memoKeySep)
	}

	m.mu.Lock()
	entry, ok := m.entries[key]
	m.mu.Unlock()
	if ok && m.now().Sub(entry.fetchedAt) < m.ttl {
		return entry.value, nil
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[key] = memoEntry{value: value, fetchedAt: m.now()}
	m.mu.Unlock()

	return value, nil
}
