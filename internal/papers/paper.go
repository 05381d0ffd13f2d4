// Package papers holds the paper library: the record types and the in-memory
// repository the rest of the application reads from and saves into.
package papers

import (
	"fmt"
	"slices"
	"strings"
)

// Status tracks where a paper sits in its publication lifecycle.
type Status string

const (
	StatusDraft       Status = "Draft"
	StatusUnderReview Status = "Under Review"
	StatusPublished   Status = "Published"
)

// ParseStatus accepts the display names case-insensitively, plus the compact
// "underreview"/"under_review" spellings used in library files.
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch normalized {
	case "draft", "":
		return StatusDraft, nil
	case "under review", "underreview":
		return StatusUnderReview, nil
	case "published":
		return StatusPublished, nil
	default:
		return "", fmt.Errorf("unknown paper status %q", value)
	}
}

// Author is shared value data; the same author appears on many papers.
type Author struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Avatar      string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// Paper is the authored document. Content is the markdown body shown by both
// the editor and the reader.
type Paper struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Abstract    string   `json:"abstract" yaml:"abstract"`
	Content     string   `json:"content" yaml:"content"`
	Authors     []Author `json:"authors" yaml:"authors"`
	Status      Status   `json:"status" yaml:"status"`
	PublishDate string   `json:"publishDate,omitempty" yaml:"publishDate,omitempty"`
	Tags        []string `json:"tags" yaml:"tags"`
	Citations   int      `json:"citations" yaml:"citations"`
	CoverImage  string   `json:"coverImage,omitempty" yaml:"coverImage,omitempty"`
}

// IsDraft reports whether the paper opens in the editor rather than the reader.
func (p Paper) IsDraft() bool {
	return p.Status == StatusDraft
}

// LeadAuthor returns the first author, or the zero Author for malformed records.
func (p Paper) LeadAuthor() Author {
	if len(p.Authors) == 0 {
		return Author{}
	}
	return p.Authors[0]
}

// Clone returns a deep copy so callers never share slices with the store.
func (p Paper) Clone() Paper {
	clone := p
	clone.Authors = slices.Clone(p.Authors)
	clone.Tags = slices.Clone(p.Tags)
	return clone
}

// Matches reports a case-insensitive substring hit on the title or abstract.
func (p Paper) Matches(query string) bool {
	query = strings.ToLower(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Abstract), query)
}
