/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

const (
	// The exchange rejects requests that don't look like they come from a
	// browser; this must stay in sync with the header bundle set on the
	// live session.
	UserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:80.0) Gecko/20100101 Firefox/80.0"

	// Optional S3 bucket used to share downloaded reports across runs and
	// hosts. When unset the report cache is in-memory only.
	CacheBucketEnvVar = "NSEDATA_CACHE_BUCKET"
)
