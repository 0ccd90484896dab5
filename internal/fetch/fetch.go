// Package fetch downloads daily police report PDFs from the city website
// for a date range.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/safestreets/report-cli/internal/config"
	"github.com/safestreets/report-cli/internal/resilience"
)

// Stats counts per-day outcomes across a fetch run. Counters are atomic
// because downloads run concurrently.
type Stats struct {
	Downloaded atomic.Int64
	Skipped    atomic.Int64 // already on disk
	Missing    atomic.Int64 // no report published for that day
	Failed     atomic.Int64
}

// Fetcher downloads report PDFs with bounded concurrency and retries.
type Fetcher struct {
	client       *http.Client
	baseURL      string
	pathTemplate string
	concurrency  int
	limiter      *rate.Limiter
	retry        resilience.Policy
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client, used in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a Fetcher from config.
func New(cfg config.FetchConfig, retry resilience.Policy, opts ...Option) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	f := &Fetcher{
		client:       &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pathTemplate: cfg.PathTemplate,
		concurrency:  concurrency,
		limiter:      rate.NewLimiter(2, 2),
		retry:        retry,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ReportSlug renders a date as the lowercase file-name stem the city uses,
// e.g. "april-07-2025".
func ReportSlug(day time.Time) string {
	return strings.ToLower(day.Format("January-02-2006"))
}

// ReportURL builds the full download URL for a report day.
func (f *Fetcher) ReportURL(day time.Time) string {
	return f.baseURL + fmt.Sprintf(f.pathTemplate, ReportSlug(day))
}

// Days expands an inclusive date range into individual days.
func Days(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// FetchRange downloads every report in [start, end] into destDir. Days
// whose file is already on disk are skipped; days with no published
// report are counted but not treated as errors. Individual download
// failures are logged and counted; only context cancellation aborts the
// run.
func (f *Fetcher) FetchRange(ctx context.Context, start, end time.Time, destDir string) (*Stats, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "fetch: create %s", destDir)
	}

	stats := &Stats{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, day := range Days(start, end) {
		g.Go(func() error {
			return f.fetchDay(ctx, day, destDir, stats)
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (f *Fetcher) fetchDay(ctx context.Context, day time.Time, destDir string, stats *Stats) error {
	url := f.ReportURL(day)
	dest := filepath.Join(destDir, path.Base(url))
	log := zap.L().With(zap.String("url", url))

	if _, err := os.Stat(dest); err == nil {
		log.Debug("report already downloaded, skipping")
		stats.Skipped.Add(1)
		return nil
	}

	exists, err := f.probe(ctx, url)
	if err != nil {
		log.Warn("probe failed", zap.Error(err))
		stats.Failed.Add(1)
		return ctx.Err()
	}
	if !exists {
		log.Debug("no report published for day")
		stats.Missing.Add(1)
		return nil
	}

	if err := f.download(ctx, url, dest); err != nil {
		log.Warn("download failed", zap.Error(err))
		stats.Failed.Add(1)
		return ctx.Err()
	}

	log.Info("downloaded report", zap.String("dest", dest))
	stats.Downloaded.Add(1)
	return nil
}

// probe issues a HEAD request to check whether the day's report exists.
// The city serves 404 for days without a published log.
func (f *Fetcher) probe(ctx context.Context, url string) (bool, error) {
	return resilience.DoVal(ctx, f.retry, "fetch head", func(ctx context.Context) (bool, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return false, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false, eris.Wrap(err, "fetch: create head request")
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return false, resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusOK:
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return false, resilience.NewTransientError(eris.Errorf("fetch: http %d from %s", resp.StatusCode, url), resp.StatusCode)
		default:
			return false, eris.Errorf("fetch: http %d from %s", resp.StatusCode, url)
		}
	})
}

// download writes the report to a temp file first so an interrupted run
// never leaves a truncated PDF behind.
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	return resilience.Do(ctx, f.retry, "fetch download", func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return eris.Wrap(err, "fetch: create request")
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("fetch: http %d from %s", resp.StatusCode, url)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
		if err != nil {
			return eris.Wrap(err, "fetch: create temp file")
		}
		if _, err := io.Copy(tmp, resp.Body); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return resilience.NewTransientError(eris.Wrap(err, "fetch: write body"), 0)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return eris.Wrap(err, "fetch: close temp file")
		}
		return eris.Wrap(os.Rename(tmp.Name(), dest), "fetch: rename temp file")
	})
}
