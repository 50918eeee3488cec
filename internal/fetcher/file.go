package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// FileFetcher reads datasets from the local filesystem. It accepts
// bare paths and file:// URLs, and synthesizes an ETag from the file's
// size and modification time so conditional loads skip unchanged files.
type FileFetcher struct{}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

func filePath(rawURL string) (string, error) {
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", eris.Wrap(err, "file: parse url")
		}
		return u.Path, nil
	}
	return rawURL, nil
}

// Download opens the file for reading.
func (f *FileFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	path, err := filePath(rawURL)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "file: open %s", path)
	}
	return file, nil
}

// HeadETag returns a token derived from file size and mtime.
func (f *FileFetcher) HeadETag(ctx context.Context, rawURL string) (string, error) {
	path, err := filePath(rawURL)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", eris.Wrapf(err, "file: stat %s", path)
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano()), nil
}

// DownloadIfChanged reads the file only when its size/mtime token
// differs from the given etag.
func (f *FileFetcher) DownloadIfChanged(ctx context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error) {
	current, err := f.HeadETag(ctx, rawURL)
	if err != nil {
		return nil, "", false, err
	}
	if etag != "" && etag == current {
		return nil, etag, false, nil
	}
	rc, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, "", false, err
	}
	return rc, current, true, nil
}
