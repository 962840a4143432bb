package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nativelibs/tpbuild/internal/logfields"
)

// download streams url into destPath through a temporary .part file so an
// interrupted transfer never leaves a truncated archive behind.
func (f *Fetcher) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: status %d", url, resp.StatusCode)
	}

	partPath := destPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}

	pw := &progressWriter{
		logger: f.logger.With(logfields.URL(url)),
		total:  resp.ContentLength,
	}
	n, err := io.Copy(io.MultiWriter(out, pw), resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partPath)
		return fmt.Errorf("writing download: %w", err)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		return fmt.Errorf("finalizing download: %w", err)
	}

	f.logger.Info("Downloaded archive",
		logfields.URL(url),
		slog.String("size", humanize.Bytes(uint64(n))),
		logfields.Since(start))
	return nil
}

// progressWriter logs every tenth percent of a transfer.
type progressWriter struct {
	logger      *slog.Logger
	total       int64
	written     int64
	lastPercent int
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}
	percent := int(p.written * 100 / p.total)
	if percent/10 > p.lastPercent/10 {
		p.logger.Debug("Downloading",
			slog.Int("percent", percent),
			slog.String("received", humanize.Bytes(uint64(p.written))),
			slog.String("total", humanize.Bytes(uint64(p.total))))
	}
	p.lastPercent = percent
	return len(b), nil
}
