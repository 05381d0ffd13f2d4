// Package arxiv imports papers from arXiv: metadata from the Atom query API
// and full text from the PDF.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

const (
	defaultAPIURL      = "https://export.arxiv.org/api/query"
	defaultPDFBase     = "https://arxiv.org/pdf"
	defaultHTTPTimeout = 90 * time.Second
)

// ErrNotFound is returned when the API has no entry for an identifier.
var ErrNotFound = errors.New("arxiv paper not found")

// Entry is the subset of arXiv metadata the importer uses.
type Entry struct {
	ID               string
	Title            string
	Authors          []string
	Abstract         string
	Subjects         []string
	Published        time.Time
	KeyContributions []string
	PDFURL           string
	FullText         string
}

var (
	urlIDRe   = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/([0-9a-z.\-/]+?)(?:\.pdf)?/?$`)
	bareIDRe  = regexp.MustCompile(`(?i)^[0-9a-z.\-]+(?:/[0-9]+)?$`)
	versionRe = regexp.MustCompile(`v\d+$`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client for API and PDF requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithEndpoints points the client at another API and PDF host.
func WithEndpoints(apiURL, pdfBase string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = apiURL
		}
		if pdfBase != "" {
			c.pdfBase = strings.TrimRight(pdfBase, "/")
		}
	}
}

// WithCacheDir sets where PDFs are cached.
func WithCacheDir(dir string) Option {
	return func(c *Client) { c.cacheDir = dir }
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithoutFullText skips the PDF download.
func WithoutFullText() Option {
	return func(c *Client) { c.skipPDF = true }
}

// Client talks to arXiv.
type Client struct {
	http     *http.Client
	apiURL   string
	pdfBase  string
	cacheDir string
	skipPDF  bool
	logger   *zap.Logger
	cache    *pdfCache
}

// NewClient builds a Client and prepares its PDF cache.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		apiURL:  defaultAPIURL,
		pdfBase: defaultPDFBase,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.skipPDF {
		cache, err := newPDFCache(c.cacheDir, c.http, c.logger)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}
	return c, nil
}

// Fetch resolves ref (an arXiv URL, "arXiv:<id>" or a bare id) and returns its
// metadata and, unless disabled, the PDF text. A PDF that cannot be read is
// logged and leaves FullText empty.
func (c *Client) Fetch(ctx context.Context, ref string) (*Entry, error) {
	id := ParseIdentifier(ref)
	if id == "" {
		return nil, fmt.Errorf("unable to extract arXiv identifier from %q", ref)
	}

	raw, err := c.query(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:       id,
		Title:    normalizeWhitespace(raw.Title),
		Abstract: normalizeWhitespace(raw.Summary),
		PDFURL:   fmt.Sprintf("%s/%s.pdf", c.pdfBase, id),
	}
	for _, a := range raw.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			entry.Authors = append(entry.Authors, name)
		}
	}
	for _, cat := range raw.Categories {
		if term := strings.TrimSpace(cat.Term); term != "" {
			entry.Subjects = append(entry.Subjects, term)
		}
	}
	if published, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.Published)); err == nil {
		entry.Published = published
	}
	entry.KeyContributions = extractKeyContributions(entry.Abstract)

	if c.cache != nil {
		text, err := c.pdfText(ctx, id, entry.PDFURL)
		if err != nil {
			c.logger.Warn("pdf text unavailable", zap.String("arxiv_id", id), zap.Error(err))
		} else {
			entry.FullText = text
		}
	}
	return entry, nil
}

func (c *Client) query(ctx context.Context, id string) (*apiEntry, error) {
	endpoint := c.apiURL + "?id_list=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arxiv API error: %s (%s)", resp.Status, string(body))
	}

	var feed apiFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode arxiv response: %w", err)
	}
	for i := range feed.Entries {
		// Unknown ids come back as an entry without a title.
		if strings.TrimSpace(feed.Entries[i].Title) != "" {
			return &feed.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (c *Client) pdfText(ctx context.Context, id, pdfURL string) (string, error) {
	path, err := c.cache.Fetch(ctx, id, pdfURL)
	if err != nil {
		return "", err
	}
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, content); err != nil {
		return "", err
	}
	return normalizeWhitespace(b.String()), nil
}

// ParseIdentifier extracts an arXiv id, including any version suffix, from a
// URL, an "arXiv:" reference or a bare id. It returns "" when ref is not
// recognisable.
func ParseIdentifier(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if m := urlIDRe.FindStringSubmatch(ref); len(m) > 1 {
		return m[1]
	}
	if strings.Contains(ref, "://") {
		return ""
	}
	if len(ref) > len("arxiv:") && strings.EqualFold(ref[:len("arxiv:")], "arxiv:") {
		ref = strings.TrimSpace(ref[len("arxiv:"):])
	}
	if len(ref) > 4 && strings.EqualFold(ref[len(ref)-4:], ".pdf") {
		ref = ref[:len(ref)-4]
	}
	if bareIDRe.MatchString(ref) && strings.ContainsAny(ref, "0123456789") {
		return ref
	}
	return ""
}

// baseIdentifier drops the version suffix.
func baseIdentifier(id string) string {
	return versionRe.ReplaceAllString(id, "")
}

type apiFeed struct {
	Entries []apiEntry `xml:"entry"`
}

type apiEntry struct {
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Published  string        `xml:"published"`
	Authors    []apiAuthor   `xml:"author"`
	Categories []apiCategory `xml:"category"`
}

type apiAuthor struct {
	Name string `xml:"name"`
}

type apiCategory struct {
	Term string `xml:"term,attr"`
}

func normalizeWhitespace(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}
