package arxiv

import (
	"context"
	"regexp"
	"strings"

	"github.com/csheth/paperdesk/internal/papers"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Import fetches ref and converts it into a published library record. The
// record id is "arxiv-" plus the unversioned identifier, so importing another
// version of the same paper replaces the earlier record.
func (c *Client) Import(ctx context.Context, ref string) (papers.Paper, error) {
	entry, err := c.Fetch(ctx, ref)
	if err != nil {
		return papers.Paper{}, err
	}
	return ToPaper(entry), nil
}

// ToPaper maps an arXiv entry onto a library record.
func ToPaper(entry *Entry) papers.Paper {
	paper := papers.Paper{
		ID:       "arxiv-" + strings.ReplaceAll(baseIdentifier(entry.ID), "/", "-"),
		Title:    entry.Title,
		Abstract: entry.Abstract,
		Content:  renderContent(entry),
		Status:   papers.StatusPublished,
		Tags:     append([]string{}, entry.Subjects...),
	}
	if !entry.Published.IsZero() {
		paper.PublishDate = entry.Published.Format("2006-01-02")
	}
	for _, name := range entry.Authors {
		paper.Authors = append(paper.Authors, papers.Author{
			ID:   "arxiv-author-" + strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-"),
			Name: name,
		})
	}
	if len(paper.Authors) == 0 {
		paper.Authors = []papers.Author{{ID: "arxiv-author-unknown", Name: "Unknown"}}
	}
	return paper
}

// renderContent lays the entry out as markdown for the reader.
func renderContent(entry *Entry) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(entry.Title)
	b.WriteString("\n\n")
	if len(entry.Authors) > 0 {
		b.WriteString("*")
		b.WriteString(strings.Join(entry.Authors, ", "))
		b.WriteString("*\n\n")
	}
	if entry.Abstract != "" {
		b.WriteString("## Abstract\n")
		b.WriteString(entry.Abstract)
		b.WriteString("\n\n")
	}
	if len(entry.KeyContributions) > 0 {
		b.WriteString("## Key Contributions\n")
		for _, item := range entry.KeyContributions {
			b.WriteString("- ")
			b.WriteString(item)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if entry.FullText != "" {
		b.WriteString("## Full Text\n")
		b.WriteString(entry.FullText)
		b.WriteString("\n")
	}
	b.WriteString("\nSource: ")
	b.WriteString(entry.PDFURL)
	b.WriteString("\n")
	return b.String()
}
