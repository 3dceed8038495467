// Package fetch transfers discovered profile files to local storage.
// A file whose name already exists in the destination directory is
// treated as downloaded and never re-fetched; this is the cache/resume
// mechanism and it deliberately skips size or checksum validation.
// Transfers stream through a temp file and rename into place so a
// failed download never leaves a partial file under the final name.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jlaffaye/ftp"
	"golang.org/x/sync/errgroup"
)

// Stats tracks transfer counters for one run.
type Stats struct {
	Completed atomic.Uint64
	Failed    atomic.Uint64
	Skipped   atomic.Uint64
	Bytes     atomic.Uint64
}

// Fetcher downloads single files over HTTP or FTP.
type Fetcher struct {
	Client     *http.Client
	FTPTimeout time.Duration
	Stats      Stats
}

// NewFetcher returns a fetcher using the given HTTP client for http(s)
// URLs and anonymous FTP for ftp URLs.
func NewFetcher(client *http.Client, ftpTimeout time.Duration) *Fetcher {
	return &Fetcher{Client: client, FTPTimeout: ftpTimeout}
}

// Download fetches one file into destDir and returns its local path.
// An already-present file of the same name short-circuits to success
// without any remote request.
func (f *Fetcher) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("bad url %q: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	dest := filepath.Join(destDir, name)

	if _, err := os.Stat(dest); err == nil {
		f.Stats.Skipped.Add(1)
		log.Printf("[%s] already exists, skipping", name)
		return dest, nil
	}

	switch u.Scheme {
	case "http", "https":
		err = f.downloadHTTP(ctx, rawURL, dest)
	case "ftp":
		err = f.downloadFTP(ctx, u, dest)
	default:
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if err != nil {
		f.Stats.Failed.Add(1)
		return "", err
	}

	f.Stats.Completed.Add(1)
	log.Printf("[%s] downloaded", name)
	return dest, nil
}

// DownloadAll fetches every URL with a bounded worker pool. The bound
// is a deliberate throttle so the pipeline does not overwhelm public
// data servers. Per-file failures are logged and dropped; the returned
// local paths preserve input order.
func (f *Fetcher) DownloadAll(ctx context.Context, urls []string, destDir string, workers int) []string {
	if workers < 1 {
		workers = 1
	}

	results := make([]string, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rawURL := range urls {
		g.Go(func() error {
			dest, err := f.Download(ctx, rawURL, destDir)
			if err != nil {
				log.Printf("download failed for %s: %v", rawURL, err)
				return nil // per-file failure never fails the batch
			}
			results[i] = dest
			return nil
		})
	}
	g.Wait()

	out := make([]string, 0, len(urls))
	for _, dest := range results {
		if dest != "" {
			out = append(out, dest)
		}
	}
	return out
}

func (f *Fetcher) downloadHTTP(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return f.writeFile(dest, resp.Body)
}

func (f *Fetcher) downloadFTP(ctx context.Context, u *url.URL, dest string) error {
	addr := u.Host
	if u.Port() == "" {
		addr += ":21"
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(f.FTPTimeout))
	if err != nil {
		return fmt.Errorf("ftp dial failed: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return fmt.Errorf("ftp login failed: %w", err)
	}

	r, err := conn.Retr(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return fmt.Errorf("ftp retr failed: %w", err)
	}
	defer r.Close()

	return f.writeFile(dest, r)
}

// writeFile streams body to dest via a temp file and atomic rename.
func (f *Fetcher) writeFile(dest string, body io.Reader) error {
	tmpPath := dest + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}

	n, err := io.Copy(out, body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename failed: %w", err)
	}

	f.Stats.Bytes.Add(uint64(n))
	return nil
}
