package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RetrievalError reports a non-success response from the open-data endpoint.
// Fatal to the run; there is no retry policy.
type RetrievalError struct {
	URL    string
	Status int
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval of %s failed with status %d", e.URL, e.Status)
}

// Retriever ensures a dated archive exists locally as an extracted,
// ready-to-fragment text file.
type Retriever struct {
	baseURL string
	dataDir string
	client  *http.Client
	mirror  *Mirror
	logger  *slog.Logger
	bytes   prometheus.Counter
}

// Option configures a Retriever.
type Option func(*Retriever)

func WithHTTPClient(client *http.Client) Option {
	return func(r *Retriever) {
		r.client = client
	}
}

// WithMirror uploads each downloaded archive to the incoming-files bucket.
func WithMirror(m *Mirror) Option {
	return func(r *Retriever) {
		r.mirror = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// WithBytesCounter counts every downloaded byte.
func WithBytesCounter(c prometheus.Counter) Option {
	return func(r *Retriever) {
		r.bytes = c
	}
}

// New constructs a Retriever rooted at dataDir.
func New(baseURL, dataDir string, opts ...Option) *Retriever {
	r := &Retriever{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
		dataDir: dataDir,
		client:  &http.Client{Timeout: 30 * time.Minute},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ensure returns the path to the extracted text file for the given archive
// name, downloading and extracting it only when absent. Idempotent: an
// already-extracted file returns immediately.
func (r *Retriever) Ensure(ctx context.Context, filename string) (string, error) {
	extracted := filepath.Join(r.dataDir, strings.TrimSuffix(filename, ".zip")+".csv")
	if _, err := os.Stat(extracted); err == nil {
		r.logger.Info("extracted file already present", "path", extracted)
		return extracted, nil
	}

	zipPath := filepath.Join(r.dataDir, filename)
	if _, err := os.Stat(zipPath); err == nil {
		r.logger.Info("archive already downloaded", "path", zipPath)
	} else {
		if err := r.download(ctx, filename, zipPath); err != nil {
			return "", err
		}
		if r.mirror != nil {
			if err := r.mirror.Upload(ctx, zipPath); err != nil {
				// Mirroring is best effort; the local copy is authoritative.
				r.logger.Warn("archive mirror upload failed", "error", err)
			}
		}
	}

	member, err := Unzip(zipPath)
	if err != nil {
		return "", err
	}
	// Archive members carry the undated dataset name; keep the dated name so
	// the presence check above stays per-period.
	if member != extracted {
		if err := os.Rename(member, extracted); err != nil {
			return "", fmt.Errorf("rename extracted file: %w", err)
		}
	}
	return extracted, nil
}

func (r *Retriever) download(ctx context.Context, filename, dest string) error {
	url := r.baseURL + filename

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build archive request: %w", err)
	}

	r.logger.Info("downloading archive", "url", url)
	start := time.Now()

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RetrievalError{URL: url, Status: resp.StatusCode}
	}

	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	written, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("write archive file: %w", err)
	}

	if r.bytes != nil {
		r.bytes.Add(float64(written))
	}
	r.logger.Info("archive downloaded", "bytes", written, "seconds", int(time.Since(start).Seconds()))
	return nil
}

// Unzip extracts the first member of the archive next to it and removes the
// zip afterwards. Returns the extracted file path.
func Unzip(zipPath string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		return "", fmt.Errorf("archive %s is empty", zipPath)
	}
	member := zr.File[0]

	src, err := member.Open()
	if err != nil {
		return "", fmt.Errorf("open archive member %s: %w", member.Name, err)
	}
	defer src.Close()

	dest := filepath.Join(filepath.Dir(zipPath), filepath.Base(member.Name))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create extracted file: %w", err)
	}
	_, err = io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("extract %s: %w", member.Name, err)
	}

	if err := os.Remove(zipPath); err != nil {
		return "", fmt.Errorf("remove archive after extraction: %w", err)
	}
	return dest, nil
}
