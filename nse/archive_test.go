/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sparkfin/nsedata/internal"
)

const bhavCSV = "SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE\nSBIN,EQ,600,610,595,605\n"

// zipWith wraps contents as a single-member zip archive, the way the archive
// host packages settlement reports.
func zipWith(t *testing.T, name string, contents []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := w.Write(contents); err != nil {
		t.Fatalf("write zip member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

func newArchiveClient(t *testing.T, srv *httptest.Server) *ArchiveClient {
	t.Helper()
	t.Setenv(internal.CacheBucketEnvVar, "")
	return NewArchiveClient(context.Background(), WithArchiveBaseURL(srv.URL))
}

func TestReportFilenames(t *testing.T) {
	d := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	if got := BhavcopyFilename(d); got != "cm02JAN2026bhav.csv" {
		t.Errorf("BhavcopyFilename = %q", got)
	}
	if got := FOBhavcopyFilename(d); got != "fo02JAN2026bhav.csv" {
		t.Errorf("FOBhavcopyFilename = %q", got)
	}
	if got := FullBhavcopyFilename(d); got != "sec_bhavdata_full_02012026.csv" {
		t.Errorf("FullBhavcopyFilename = %q", got)
	}
}

func TestBhavcopy(t *testing.T) {
	d := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	wantPath := "/content/historical/EQUITIES/2026/JAN/cm02JAN2026bhav.csv.zip"

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write(zipWith(t, "cm02JAN2026bhav.csv", []byte(bhavCSV)))
		}))
	defer srv.Close()

	c := newArchiveClient(t, srv)
	data, err := c.Bhavcopy(context.Background(), d)
	if err != nil {
		t.Fatalf("Bhavcopy: %v", err)
	}
	if gotPath != wantPath {
		t.Errorf("requested %q; want %q", gotPath, wantPath)
	}
	if string(data) != bhavCSV {
		t.Errorf("extracted %q; want the report CSV", data)
	}
}

func TestBhavcopySave(t *testing.T) {
	d := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write(zipWith(t, "cm02JAN2026bhav.csv", []byte(bhavCSV)))
		}))
	defer srv.Close()

	dir := t.TempDir()
	c := newArchiveClient(t, srv)
	path, err := c.BhavcopySave(context.Background(), d, dir)
	if err != nil {
		t.Fatalf("BhavcopySave: %v", err)
	}
	if want := filepath.Join(dir, "cm02JAN2026bhav.csv"); path != want {
		t.Errorf("saved to %q; want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	if string(data) != bhavCSV {
		t.Errorf("saved contents %q; want the report CSV", data)
	}
}

func TestFOBhavcopySave(t *testing.T) {
	d := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	wantPath := "/content/historical/DERIVATIVES/2026/JAN/fo02JAN2026bhav.csv.zip"

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write(zipWith(t, "fo02JAN2026bhav.csv", []byte(bhavCSV)))
		}))
	defer srv.Close()

	dir := t.TempDir()
	c := newArchiveClient(t, srv)
	path, err := c.FOBhavcopySave(context.Background(), d, dir)
	if err != nil {
		t.Fatalf("FOBhavcopySave: %v", err)
	}
	if gotPath != wantPath {
		t.Errorf("requested %q; want %q", gotPath, wantPath)
	}
	if filepath.Base(path) != "fo02JAN2026bhav.csv" {
		t.Errorf("saved as %q", filepath.Base(path))
	}
}

func TestFullBhavcopy(t *testing.T) {
	d := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	wantPath := "/products/content/sec_bhavdata_full_02012026.csv"

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			// served as plain CSV, no zip wrapper
			w.Write([]byte(bhavCSV))
		}))
	defer srv.Close()

	c := newArchiveClient(t, srv)
	data, err := c.FullBhavcopy(context.Background(), d)
	if err != nil {
		t.Fatalf("FullBhavcopy: %v", err)
	}
	if gotPath != wantPath {
		t.Errorf("requested %q; want %q", gotPath, wantPath)
	}
	if string(data) != bhavCSV {
		t.Errorf("fetched %q; want the report CSV", data)
	}
}

func TestBhavcopyNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
	defer srv.Close()

	c := newArchiveClient(t, srv)
	_, err := c.Bhavcopy(context.Background(),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("error %v is not ErrRequestFailed", err)
	}
}

func TestBhavcopyBadArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("this is not a zip file"))
		}))
	defer srv.Close()

	c := newArchiveClient(t, srv)
	_, err := c.Bhavcopy(context.Background(),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("error %v is not ErrDecode", err)
	}
}

func TestBhavcopyServedFromCache(t *testing.T) {
	d := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits++
			mu.Unlock()
			w.Write(zipWith(t, "cm02JAN2026bhav.csv", []byte(bhavCSV)))
		}))
	defer srv.Close()

	c := newArchiveClient(t, srv)
	for i := 0; i < 3; i++ {
		if _, err := c.Bhavcopy(context.Background(), d); err != nil {
			t.Fatalf("Bhavcopy #%d: %v", i+1, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("archive host hit %d times for the same date; want 1", hits)
	}
}

func TestExtractZipMemberFallback(t *testing.T) {
	// the archive occasionally renames the member; a single-file archive is
	// accepted under any name
	data := zipWith(t, "CM02JAN2026BHAV.CSV", []byte(bhavCSV))

	out, err := extractZipMember(data, "cm02JAN2026bhav.csv")
	if err != nil {
		t.Fatalf("extractZipMember: %v", err)
	}
	if string(out) != bhavCSV {
		t.Errorf("extracted %q; want the report CSV", out)
	}
}

func TestExtractZipMemberMissing(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"a.csv", "b.csv"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip member: %v", err)
		}
		w.Write([]byte("x"))
	}
	zw.Close()

	_, err := extractZipMember(buf.Bytes(), "cm02JAN2026bhav.csv")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("error %v is not ErrDecode", err)
	}
}
