package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 3

var (
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaces        = regexp.MustCompile(`\s+`)
	leadingDots   = regexp.MustCompile(`^\.+`)
)

// Observer is notified of downloaded bytes, used for metrics.
type Observer interface {
	ObserveDownload(bytes int64)
}

// Item is one file to fetch.
type Item struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"` // expected size, used for overall progress
}

// Result is the outcome of one Item. Path is set on success.
type Result struct {
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// Downloader fetches direct links into a temp folder.
type Downloader struct {
	dir        string
	httpClient *http.Client
	observer   Observer
	log        zerolog.Logger

	mu       sync.Mutex
	reserved map[string]bool
}

func New(dir string, observer Observer) *Downloader {
	return &Downloader{
		dir: dir,
		httpClient: &http.Client{
			Timeout: 0, // large files; cancellation goes through the context
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		observer: observer,
		log:      log.Logger.With().Str("component", "downloader").Logger(),
		reserved: make(map[string]bool),
	}
}

// Dir returns the temp folder downloads are written to.
func (d *Downloader) Dir() string {
	return d.dir
}

// SanitizeFilename replaces characters that are unsafe in file names and
// whitespace with underscores. Leading dots become a single underscore.
func SanitizeFilename(name string) string {
	clean := reservedChars.ReplaceAllString(name, "_")
	clean = spaces.ReplaceAllString(clean, "_")
	return leadingDots.ReplaceAllString(clean, "_")
}

// UniqueName sanitizes name and appends _N before the extension until it
// names neither an existing file nor one reserved by a running download.
func (d *Downloader) UniqueName(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	clean := SanitizeFilename(name)
	ext := filepath.Ext(clean)
	base := strings.TrimSuffix(clean, ext)

	final := clean
	for counter := 1; d.taken(final); counter++ {
		final = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
	d.reserved[final] = true
	return final
}

func (d *Downloader) taken(name string) bool {
	if d.reserved[name] {
		return true
	}
	_, err := os.Stat(filepath.Join(d.dir, name))
	return err == nil
}

func (d *Downloader) release(name string) {
	d.mu.Lock()
	delete(d.reserved, name)
	d.mu.Unlock()
}

// Download fetches url into dst. onProgress receives the percentage when the
// server announces a content length.
func (d *Downloader) Download(ctx context.Context, url, dst string, onProgress func(percent float64)) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	pw := &progressWriter{w: tmpFile, total: resp.ContentLength, onProgress: onProgress}
	n, err := io.Copy(pw, resp.Body)
	if err != nil {
		tmpFile.Close()
		return n, fmt.Errorf("download interrupted: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return n, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return n, fmt.Errorf("failed to rename temp file: %w", err)
	}
	tmpPath = ""

	if d.observer != nil {
		d.observer.ObserveDownload(n)
	}

	return n, nil
}

// DownloadAll fetches items with bounded concurrency. A failing item does not
// stop the others. onOverall receives overall progress weighted by Item.Bytes.
func (d *Downloader) DownloadAll(ctx context.Context, items []Item, concurrency int, onOverall func(percent float64)) []Result {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	results := make([]Result, len(items))

	var totalBytes int64
	for _, it := range items {
		totalBytes += it.Bytes
	}

	var mu sync.Mutex
	done := make([]float64, len(items))
	report := func(i int, percent float64) {
		if onOverall == nil || totalBytes == 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done[i] = percent / 100 * float64(items[i].Bytes)
		var sum float64
		for _, b := range done {
			sum += b
		}
		onOverall(sum / float64(totalBytes) * 100)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			name := d.UniqueName(it.Filename)
			defer d.release(name)

			dst := filepath.Join(d.dir, name)
			_, err := d.Download(gctx, it.URL, dst, func(p float64) { report(i, p) })
			if err != nil {
				d.log.Error().Err(err).Str("file", it.Filename).Msg("download failed")
				results[i] = Result{Error: err.Error()}
				return nil
			}

			d.log.Info().Str("file", dst).Msg("download finished")
			results[i] = Result{Path: dst}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Cleanup removes every file in the temp folder and recreates it.
func (d *Downloader) Cleanup() error {
	if err := os.RemoveAll(d.dir); err != nil {
		return err
	}
	return os.MkdirAll(d.dir, 0755)
}

type progressWriter struct {
	w          io.Writer
	total      int64
	written    int64
	onProgress func(percent float64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.total > 0 && p.onProgress != nil {
		p.onProgress(float64(p.written) / float64(p.total) * 100)
	}
	return n, err
}
