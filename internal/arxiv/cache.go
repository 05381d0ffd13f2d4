package arxiv

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// CacheDirEnv overrides where downloaded PDFs are kept.
	CacheDirEnv = "PAPERDESK_CACHE_DIR"

	cacheSubdir   = "paperdesk/pdfs"
	cacheTTL      = 24 * time.Hour
	partialSuffix = ".part"
	metaSuffix    = ".meta"
)

// pdfCache keeps downloaded PDFs on disk. Fresh files are served without a
// request, stale ones are revalidated with ETag/Last-Modified, and interrupted
// downloads resume with a Range request.
type pdfCache struct {
	dir    string
	ttl    time.Duration
	client *http.Client
	logger *zap.Logger
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// DefaultCacheDir resolves the PDF cache directory from the environment or the
// user cache dir.
func DefaultCacheDir() string {
	if dir := os.Getenv(CacheDirEnv); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "paperdesk-cache")
	}
	return filepath.Join(base, cacheSubdir)
}

func newPDFCache(dir string, client *http.Client, logger *zap.Logger) (*pdfCache, error) {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pdf cache: %w", err)
	}
	return &pdfCache{dir: dir, ttl: cacheTTL, client: client, logger: logger}, nil
}

// Fetch returns the local path of the PDF at url, stored under key. A stale
// copy is still returned when revalidation fails.
func (c *pdfCache) Fetch(ctx context.Context, key, url string) (string, error) {
	e := c.entry(key)

	info, statErr := os.Stat(e.pdf)
	if statErr == nil && info.Size() > 0 && time.Since(info.ModTime()) < c.ttl {
		return e.pdf, nil
	}
	if statErr != nil {
		info = nil
	}

	meta, _ := readMeta(e.meta)
	path, err := c.download(ctx, url, e, meta, info)
	if err == nil {
		return path, nil
	}
	if info != nil && info.Size() > 0 {
		c.logger.Warn("pdf refresh failed, using stale copy", zap.String("url", url), zap.Error(err))
		return e.pdf, nil
	}
	return "", err
}

type cacheEntry struct {
	pdf, meta, partial string
}

func (c *pdfCache) entry(key string) cacheEntry {
	key = cacheKey(key)
	return cacheEntry{
		pdf:     filepath.Join(c.dir, key+".pdf"),
		meta:    filepath.Join(c.dir, key+metaSuffix),
		partial: filepath.Join(c.dir, key+partialSuffix),
	}
}

func (c *pdfCache) download(ctx context.Context, url string, e cacheEntry, meta cacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var resumeFrom int64
	if info, err := os.Stat(e.partial); err == nil && info.Size() > 0 {
		resumeFrom = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current == nil || current.Size() == 0 {
			return c.download(ctx, url, e, cacheMeta{}, nil)
		}
		now := time.Now()
		meta.CachedAt = now.UTC()
		if err := os.Chtimes(e.pdf, now, now); err != nil {
			return "", err
		}
		return e.pdf, writeMeta(e.meta, meta)
	case http.StatusOK:
		return c.store(resp, e, false)
	case http.StatusPartialContent:
		return c.store(resp, e, resumeFrom > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pdf download failed: %s (%s)", resp.Status, string(body))
	}
}

func (c *pdfCache) store(resp *http.Response, e cacheEntry, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendExisting {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(e.partial, flags, 0o644)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	if err := os.Rename(e.partial, e.pdf); err != nil {
		return "", err
	}

	meta := cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(e.pdf); err == nil {
		meta.Size = info.Size()
	}
	c.logger.Debug("pdf cached",
		zap.String("url", meta.URL),
		zap.Int64("bytes", written),
		zap.Bool("resumed", appendExisting),
	)
	if err := writeMeta(e.meta, meta); err != nil {
		return "", err
	}
	return e.pdf, nil
}

// cacheKey turns an identifier or URL into a safe file name.
func cacheKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "://") {
		sum := sha1.Sum([]byte(key))
		return hex.EncodeToString(sum[:])
	}
	return strings.NewReplacer("/", "-", ":", "-", "..", "-").Replace(key)
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
