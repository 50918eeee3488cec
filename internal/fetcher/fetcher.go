// Package fetcher downloads the static atlas datasets over http(s),
// ftp, or the local filesystem.
package fetcher

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for retrieving remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// HeadETag returns the current ETag (or equivalent freshness token)
	// for the URL, or "" when the source has none.
	HeadETag(ctx context.Context, url string) (string, error)

	// DownloadIfChanged fetches the URL only if the ETag has changed.
	// Returns (body, newETag, changed, error). If not changed, body is
	// nil and changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}

// Dispatcher routes URLs to a scheme-appropriate Fetcher.
type Dispatcher struct {
	HTTP *HTTPFetcher
	FTP  *FTPFetcher
	File *FileFetcher
}

// NewDispatcher builds a Dispatcher with default fetchers.
func NewDispatcher(httpOpts HTTPOptions) *Dispatcher {
	return &Dispatcher{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(FTPOptions{}),
		File: NewFileFetcher(),
	}
}

// ForURL returns the fetcher handling the URL's scheme. Bare paths and
// file:// URLs go to the file fetcher.
func (d *Dispatcher) ForURL(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	switch u.Scheme {
	case "http", "https":
		return d.HTTP, nil
	case "ftp":
		return d.FTP, nil
	case "file", "":
		return d.File, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// Download resolves the URL's fetcher and downloads it.
func (d *Dispatcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	f, err := d.ForURL(rawURL)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, rawURL)
}

// DownloadIfChanged resolves the URL's fetcher and performs a
// conditional download.
func (d *Dispatcher) DownloadIfChanged(ctx context.Context, rawURL, etag string) (io.ReadCloser, string, bool, error) {
	f, err := d.ForURL(rawURL)
	if err != nil {
		return nil, "", false, err
	}
	return f.DownloadIfChanged(ctx, rawURL, etag)
}
