/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sparkfin/nsedata/internal"
	"github.com/sparkfin/nsedata/internal/httpcache"
)

const (
	// DefaultArchiveBaseURL is the exchange's report archive host.
	DefaultArchiveBaseURL = "https://archives.nseindia.com"

	// DefaultArchiveTimeout bounds each archive download; report files run
	// to several MB so this is much longer than the live-endpoint deadline.
	DefaultArchiveTimeout = 45 * time.Second

	// archiveCacheTTL is how long downloaded reports are served from the
	// local/S3 cache. A published settlement report never changes.
	archiveCacheTTL = 30 * 24 * time.Hour
)

// ArchiveClient downloads end-of-day settlement reports (bhavcopies) from
// the exchange's archive host. Responses are cached (see
// internal/httpcache), so re-downloading a date is cheap.
type ArchiveClient struct {
	http    *http.Client
	baseURL string
}

// ArchiveOption customizes archive client construction.
type ArchiveOption func(*ArchiveClient)

// WithArchiveBaseURL overrides the archive host; mainly for tests.
func WithArchiveBaseURL(u string) ArchiveOption {
	return func(c *ArchiveClient) { c.baseURL = u }
}

// WithArchiveHTTPClient replaces the underlying http.Client, bypassing the
// default cached client.
func WithArchiveHTTPClient(hc *http.Client) ArchiveOption {
	return func(c *ArchiveClient) { c.http = hc }
}

// NewArchiveClient returns a client against the report archive host. Unlike
// the live client there is no session to establish; the archive host serves
// plain files.
func NewArchiveClient(ctx context.Context, opts ...ArchiveOption) *ArchiveClient {
	c := &ArchiveClient{
		baseURL: DefaultArchiveBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpcache.NewCachedHttpClient(ctx, archiveCacheTTL)
		c.http.Timeout = DefaultArchiveTimeout
	}

	return c
}

// archiveDate renders a date the way the archive host encodes it in report
// names, e.g. 02JAN2026.
func archiveDate(d time.Time) string {
	return strings.ToUpper(d.Format("02Jan2006"))
}

// BhavcopyFilename is the canonical local filename for the equities
// settlement report of the given date.
func BhavcopyFilename(d time.Time) string {
	return fmt.Sprintf("cm%vbhav.csv", archiveDate(d))
}

// FOBhavcopyFilename is the canonical local filename for the derivatives
// settlement report of the given date.
func FOBhavcopyFilename(d time.Time) string {
	return fmt.Sprintf("fo%vbhav.csv", archiveDate(d))
}

// FullBhavcopyFilename is the canonical local filename for the full
// (security-wise, delivery data included) report of the given date.
func FullBhavcopyFilename(d time.Time) string {
	return fmt.Sprintf("sec_bhavdata_full_%v.csv", d.Format("02012006"))
}

// Bhavcopy returns the equities settlement report CSV for the given date.
// The archive vends it zip-wrapped; extraction happens in memory.
func (c *ArchiveClient) Bhavcopy(ctx context.Context, d time.Time) ([]byte, error) {
	path := fmt.Sprintf("/content/historical/EQUITIES/%d/%v/%v.zip",
		d.Year(), strings.ToUpper(d.Format("Jan")), BhavcopyFilename(d))

	data, err := c.fetch(ctx, path, "fetch bhavcopy")
	if err != nil {
		return nil, err
	}

	return extractZipMember(data, BhavcopyFilename(d))
}

// BhavcopySave downloads the equities settlement report for the given date
// and writes it under dir using the canonical filename, returning the full
// path written.
func (c *ArchiveClient) BhavcopySave(ctx context.Context, d time.Time,
	dir string) (string, error) {

	data, err := c.Bhavcopy(ctx, d)
	if err != nil {
		return "", err
	}

	return writeReport(filepath.Join(dir, BhavcopyFilename(d)), data)
}

// FOBhavcopy returns the derivatives settlement report CSV for the given
// date.
func (c *ArchiveClient) FOBhavcopy(ctx context.Context, d time.Time) ([]byte, error) {
	path := fmt.Sprintf("/content/historical/DERIVATIVES/%d/%v/%v.zip",
		d.Year(), strings.ToUpper(d.Format("Jan")), FOBhavcopyFilename(d))

	data, err := c.fetch(ctx, path, "fetch F&O bhavcopy")
	if err != nil {
		return nil, err
	}

	return extractZipMember(data, FOBhavcopyFilename(d))
}

// FOBhavcopySave downloads the derivatives settlement report for the given
// date and writes it under dir, returning the full path written.
func (c *ArchiveClient) FOBhavcopySave(ctx context.Context, d time.Time,
	dir string) (string, error) {

	data, err := c.FOBhavcopy(ctx, d)
	if err != nil {
		return "", err
	}

	return writeReport(filepath.Join(dir, FOBhavcopyFilename(d)), data)
}

// FullBhavcopy returns the full security-wise report (including delivery
// data) for the given date. This one is served as plain CSV, no zip.
func (c *ArchiveClient) FullBhavcopy(ctx context.Context, d time.Time) ([]byte, error) {
	path := fmt.Sprintf("/products/content/%v", FullBhavcopyFilename(d))

	return c.fetch(ctx, path, "fetch full bhavcopy")
}

// FullBhavcopySave downloads the full report for the given date and writes
// it under dir, returning the full path written.
func (c *ArchiveClient) FullBhavcopySave(ctx context.Context, d time.Time,
	dir string) (string, error) {

	data, err := c.FullBhavcopy(ctx, d)
	if err != nil {
		return "", err
	}

	return writeReport(filepath.Join(dir, FullBhavcopyFilename(d)), data)
}

func (c *ArchiveClient) fetch(ctx context.Context, path, action string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to %v (new): %w", action, err)
	}
	req.Header.Set("User-Agent", internal.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, requestError(action+" (do)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(action, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestError(action+" (read)", err)
	}

	return data, nil
}

// extractZipMember opens the named file inside a zip archive held in
// memory. If the expected name is absent but the archive holds exactly one
// file, that file is used; the archive host has renamed members before.
func extractZipMember(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, decodeError("report archive", err)
	}

	var member *zip.File
	for _, f := range zr.File {
		if f.Name == name {
			member = f
			break
		}
	}
	if member == nil && len(zr.File) == 1 {
		member = zr.File[0]
	}
	if member == nil {
		return nil, decodeError("report archive",
			fmt.Errorf("%v not present in archive", name))
	}

	rc, err := member.Open()
	if err != nil {
		return nil, decodeError("report archive", err)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, decodeError("report archive", err)
	}

	return out, nil
}

func writeReport(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("unable to save report: %w", err)
	}
	return path, nil
}
