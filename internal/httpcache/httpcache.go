/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package httpcache

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	gjcache "github.com/gregjones/httpcache"
	"github.com/sparkfin/nsedata/internal"
	"github.com/sparkfin/nsedata/s3cache"
)

// NewCachedHttpClient returns an http.Client that caches responses via
// httpcache. When the cache bucket env var is set the cache is S3-backed so
// downloaded reports are shared across runs; otherwise it is in-memory. It
// also enforces a client-side TTL by rewriting origin cache headers, since
// the exchange marks its archive files uncacheable even though a published
// report never changes.
func NewCachedHttpClient(ctx context.Context, maxAge time.Duration) *http.Client {
	var cache gjcache.Cache

	bucket := os.Getenv(internal.CacheBucketEnvVar)
	if bucket != "" {
		s3c := s3cache.New(ctx, bucket, true, true)
		if err := s3c.Init(); err != nil {
			log.Printf("httpcache: warning failed to init S3 cache: %v; falling back to in-memory cache", err)
			cache = gjcache.NewMemoryCache()
		} else {
			cache = s3c
		}
	} else {
		cache = gjcache.NewMemoryCache()
	}

	hc := gjcache.NewTransport(cache)
	// we have to inject our own header overrides here in order to override
	// server responses that might indicate caching shouldn't be done
	hc.Transport = &HeaderOverrideTransport{
		wrappedRT: http.DefaultTransport,
		Response: func(resp *http.Response) error {
			// Strip any cache-busting headers from origin
			resp.Header.Del("Pragma")
			resp.Header.Del("Expires")
			resp.Header.Del("Cache-Control")
			// Enforce the provided TTL
			resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge/time.Second)))
			return nil
		},
	}

	return &http.Client{Transport: hc}
}

type HeaderOverrideTransport struct {
	Request  func(req *http.Request)
	Response func(resp *http.Response) error

	// Underlying RoundTripper (e.g. default transport or another decorator)
	wrappedRT http.RoundTripper
}

// RoundTrip applies Request and Response hooks around the underlying transport.
func (t *HeaderOverrideTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so we don’t stomp on the caller’s original
	req2 := req.Clone(req.Context())
	if t.Request != nil {
		t.Request(req2)
	}

	resp, err := t.wrappedRT.RoundTrip(req2)
	if err != nil {
		return nil, err
	}

	if t.Response != nil {
		if err := t.Response(resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
