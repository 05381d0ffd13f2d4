package papers

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	placeholderTitle    = "Untitled Draft"
	placeholderAbstract = "Add an abstract..."
	placeholderContent  = "# Introduction\n\nStart writing..."
)

// Repository is the in-memory paper store. Records live for the lifetime of
// the process; the operation set is storage-agnostic so a durable backend can
// replace it without changing callers.
type Repository struct {
	mu     sync.RWMutex
	papers []Paper
	newID  func() string
	logger *zap.Logger
}

// Option customizes a Repository.
type Option func(*Repository)

// WithIDGenerator overrides the UUID generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithLogger attaches a logger for no-op updates and imports.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRepository builds a repository seeded with the given papers in order.
func NewRepository(seed []Paper, opts ...Option) *Repository {
	repo := &Repository{
		newID:  func() string { return uuid.NewString() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(repo)
	}
	repo.papers = make([]Paper, 0, len(seed))
	for _, paper := range seed {
		repo.papers = append(repo.papers, paper.Clone())
	}
	return repo
}

// List returns every paper, newest-created first.
func (r *Repository) List() []Paper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.papers)
}

// Get looks a paper up by id.
func (r *Repository) Get(id string) (Paper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.indexOf(id); idx >= 0 {
		return r.papers[idx].Clone(), true
	}
	return Paper{}, false
}

// Create prepends a placeholder draft authored by the given authors.
func (r *Repository) Create(authors []Author) Paper {
	paper := Paper{
		ID:       r.newID(),
		Title:    placeholderTitle,
		Abstract: placeholderAbstract,
		Content:  placeholderContent,
		Authors:  append([]Author(nil), authors...),
		Status:   StatusDraft,
		Tags:     []string{},
	}
	r.mu.Lock()
	r.papers = append([]Paper{paper}, r.papers...)
	r.mu.Unlock()
	r.logger.Debug("paper created", zap.String("paper_id", paper.ID))
	return paper.Clone()
}

// Add prepends an externally sourced paper. A record with the same id is
// replaced in place instead.
func (r *Repository) Add(paper Paper) Paper {
	if paper.ID == "" {
		paper.ID = r.newID()
	}
	if paper.Tags == nil {
		paper.Tags = []string{}
	}
	stored := paper.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := r.indexOf(stored.ID); idx >= 0 {
		r.papers[idx] = stored
		return stored.Clone()
	}
	r.papers = append([]Paper{stored}, r.papers...)
	r.logger.Debug("paper added", zap.String("paper_id", stored.ID))
	return stored.Clone()
}

// Update replaces the record with the same id. Unknown ids are ignored:
// callers only ever hold ids they got from List or Create.
func (r *Repository) Update(paper Paper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(paper.ID)
	if idx < 0 {
		r.logger.Debug("update ignored for unknown paper", zap.String("paper_id", paper.ID))
		return
	}
	r.papers[idx] = paper.Clone()
}

// Filter returns papers whose title or abstract contains query, ignoring
// case. An empty query returns everything.
func (r *Repository) Filter(query string) []Paper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if query == "" {
		return cloneAll(r.papers)
	}
	matches := []Paper{}
	for _, paper := range r.papers {
		if paper.Matches(query) {
			matches = append(matches, paper.Clone())
		}
	}
	return matches
}

// Len reports the number of stored papers.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.papers)
}

func (r *Repository) indexOf(id string) int {
	for i := range r.papers {
		if r.papers[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(papers []Paper) []Paper {
	out := make([]Paper, 0, len(papers))
	for _, paper := range papers {
		out = append(out, paper.Clone())
	}
	return out
}
