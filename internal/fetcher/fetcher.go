// Package fetcher downloads and parses open-data sources over HTTP and FTP:
// Socrata CSV exports, TIGER shapefile ZIPs, and ACS attribute tables
// (CSV/XLSX/JSON).
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadCached fetches the URL to path unless the file already exists.
	// force bypasses the cache. Returns true when a download happened.
	DownloadCached(ctx context.Context, url string, path string, force bool) (bool, error)
}
