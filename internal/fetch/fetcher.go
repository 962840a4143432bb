package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nativelibs/tpbuild/internal/branding"
	"github.com/nativelibs/tpbuild/internal/logfields"
)

// Fetcher implements the download-and-extract collaborator.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	sha256     string
	version    string
	userAgent  string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithLogger sets the logger used for progress reporting.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithChecksum requires downloaded archives to match the given hex sha256.
func WithChecksum(sum string) Option {
	return func(f *Fetcher) {
		f.sha256 = sum
	}
}

// WithVersion records the upstream version in the source stamp so that a
// version bump is reported as an upgrade.
func WithVersion(v string) Option {
	return func(f *Fetcher) {
		f.version = v
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient = &http.Client{Timeout: d}
	}
}

// WithUserAgent sets the User-Agent header sent with downloads.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		userAgent:  branding.UserAgent(""),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DownloadAndExtract makes destDir contain the unpacked archive at url.
// The archive is stored in workingDir and is expected to hold a single top
// level folder named archiveBaseName, which is moved to destDir.
func (f *Fetcher) DownloadAndExtract(ctx context.Context, url, workingDir, destDir, archiveBaseName string) error {
	log := f.logger.With(logfields.URL(url), logfields.Path(destDir))

	present, err := f.isPresent(destDir, url)
	if err != nil {
		return err
	}
	if present {
		log.Debug("Source already extracted, skipping download")
		return nil
	}

	if err := os.MkdirAll(workingDir, 0755); err != nil {
		return fmt.Errorf("creating working directory %s: %w", workingDir, err)
	}

	name, err := URLFileName(url)
	if err != nil {
		return err
	}
	archivePath := filepath.Join(workingDir, name)

	if err := f.ensureArchive(ctx, url, archivePath); err != nil {
		return err
	}

	start := time.Now()
	unpacked := filepath.Join(workingDir, archiveBaseName)
	if err := os.RemoveAll(unpacked); err != nil {
		return fmt.Errorf("removing stale %s: %w", unpacked, err)
	}
	if err := Extract(archivePath, workingDir); err != nil {
		return err
	}
	if _, err := os.Stat(unpacked); err != nil {
		return fmt.Errorf("archive %s did not contain %s: %w", name, archiveBaseName, err)
	}

	if filepath.Clean(unpacked) != filepath.Clean(destDir) {
		if err := os.RemoveAll(destDir); err != nil {
			return fmt.Errorf("removing stale %s: %w", destDir, err)
		}
		if err := os.MkdirAll(filepath.Dir(destDir), 0755); err != nil {
			return fmt.Errorf("creating parent of %s: %w", destDir, err)
		}
		if err := os.Rename(unpacked, destDir); err != nil {
			return fmt.Errorf("moving %s to %s: %w", unpacked, destDir, err)
		}
	}

	stamp := &SourceStamp{URL: url, Version: f.version, ExtractedAt: time.Now().UTC()}
	if err := SaveStamp(destDir, stamp); err != nil {
		return err
	}

	log.Info("Extracted source archive", logfields.Since(start))
	return nil
}

// isPresent reports whether destDir already holds the sources for url.
// A folder without a stamp is trusted as-is; a stamp for another URL
// means the folder is stale.
func (f *Fetcher) isPresent(destDir, url string) (bool, error) {
	if _, err := os.Stat(destDir); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("checking %s: %w", destDir, err)
	}

	stamp, err := LoadStamp(destDir)
	if err != nil {
		return false, err
	}
	if stamp == nil {
		f.logger.Warn("Source folder has no stamp, assuming it is up to date", logfields.Path(destDir))
		return true, nil
	}
	if stamp.URL == url {
		return true, nil
	}

	switch cmp, err := compareVersions(stamp.Version, f.version); {
	case err != nil:
		f.logger.Info("Source folder is stale, re-extracting", logfields.Path(destDir), slog.String("previous_url", stamp.URL))
	case cmp < 0:
		f.logger.Info("Upgrading extracted source", slog.String("from", stamp.Version), slog.String("to", f.version))
	case cmp > 0:
		f.logger.Warn("Downgrading extracted source", slog.String("from", stamp.Version), slog.String("to", f.version))
	default:
		f.logger.Info("Source URL changed, re-extracting", slog.String("previous_url", stamp.URL))
	}
	return false, nil
}

// ensureArchive downloads the archive unless a verified copy already exists.
func (f *Fetcher) ensureArchive(ctx context.Context, url, archivePath string) error {
	if _, err := os.Stat(archivePath); err == nil {
		if f.sha256 == "" {
			return nil
		}
		if err := VerifySHA256(archivePath, f.sha256); err == nil {
			return nil
		}
		f.logger.Warn("Cached archive failed checksum, downloading again", logfields.Path(archivePath))
		if err := os.Remove(archivePath); err != nil {
			return fmt.Errorf("removing corrupt archive: %w", err)
		}
	}

	if err := f.download(ctx, url, archivePath); err != nil {
		return err
	}
	if f.sha256 != "" {
		if err := VerifySHA256(archivePath, f.sha256); err != nil {
			os.Remove(archivePath)
			return err
		}
	}
	return nil
}
