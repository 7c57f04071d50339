// Package noteservice coordinates storage, the corpus index, the markdown
// pipeline, and the graph builders behind one service facade.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nordvang/varden/internal/apperr"
	"github.com/nordvang/varden/internal/checksum"
	"github.com/nordvang/varden/internal/graph"
	"github.com/nordvang/varden/internal/index"
	"github.com/nordvang/varden/internal/markdown"
	"github.com/nordvang/varden/internal/models"
	"github.com/nordvang/varden/internal/storage"
	"github.com/nordvang/varden/internal/vaultindex"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Links       []string       `json:"links"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// RenderedNote is a fully processed document ready for the viewer: final
// HTML plus the component descriptors lifted out of it.
type RenderedNote struct {
	markdown.Document
	Backlinks []string `json:"backlinks"`
	Checksum  string   `json:"checksum"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations. It owns the link
// resolver: a vault-wide file index rebuilt lazily after invalidation.
type Service struct {
	store    storage.Provider
	db       *index.DB
	pipeline *markdown.Pipeline

	mu       sync.RWMutex
	resolver *vaultindex.Index
}

// NewService creates a new note service. The pipeline is constructed by the
// caller with s.Resolver as its provider, then attached via SetPipeline.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// SetPipeline attaches the markdown pipeline. Split from NewService because
// the pipeline's resolver provider closes over the service itself.
func (s *Service) SetPipeline(p *markdown.Pipeline) { s.pipeline = p }

// Pipeline returns the attached markdown pipeline.
func (s *Service) Pipeline() *markdown.Pipeline { return s.pipeline }

// Resolver returns the current vault file index, building it on first use.
// Implements markdown.ResolverProvider.
func (s *Service) Resolver() *vaultindex.Index {
	s.mu.RLock()
	idx := s.resolver
	s.mu.RUnlock()
	if idx != nil {
		return idx
	}

	files, err := s.store.List("")
	if err != nil {
		return nil
	}
	idx = vaultindex.Build(files)

	s.mu.Lock()
	s.resolver = idx
	s.mu.Unlock()
	return idx
}

// InvalidateResolver drops the cached file index so the next render rebuilds
// it. Called by the watcher on any vault mutation.
func (s *Service) InvalidateResolver() {
	s.mu.Lock()
	s.resolver = nil
	s.mu.Unlock()
}

// GetNote reads a note from storage, extracts its metadata, and enriches
// with backlinks. The content is raw source, not HTML.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// RenderNote reads a note and runs the full two-pass pipeline over it.
func (s *Service) RenderNote(_ context.Context, path string) (*RenderedNote, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc, err := s.pipeline.Render(path, data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &RenderedNote{
		Document:  *doc,
		Backlinks: nonNilSlice(bl),
		Checksum:  checksum.Sum(data),
	}, nil
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	s.InvalidateResolver()
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	s.InvalidateResolver()
	return s.db.DeleteNote(path)
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph builds the corpus-wide knowledge graph from the metadata index.
func (s *Service) Graph(_ context.Context) (*graph.Data, error) {
	entries, err := s.metadata()
	if err != nil {
		return nil, err
	}
	return graph.BuildGlobal(entries), nil
}

// LocalGraph builds the neighborhood graph around one file up to depth hops.
func (s *Service) LocalGraph(_ context.Context, filePath string, depth int) (*graph.Data, error) {
	entries, err := s.metadata()
	if err != nil {
		return nil, err
	}
	return graph.BuildLocal(entries, filePath, depth), nil
}

// TagGraph builds the hub-and-spoke view for one tag.
func (s *Service) TagGraph(_ context.Context, tag string) (*graph.Data, error) {
	entries, err := s.metadata()
	if err != nil {
		return nil, err
	}
	return graph.FilterByTag(entries, tag), nil
}

// GraphStats summarizes the corpus-wide graph.
func (s *Service) GraphStats(_ context.Context) (graph.Statistics, error) {
	entries, err := s.metadata()
	if err != nil {
		return graph.Statistics{}, err
	}
	return graph.BuildStatistics(entries), nil
}

func (s *Service) metadata() ([]models.MetadataEntry, error) {
	entries, err := s.db.MetadataIndex()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIndexUnavailable, err)
	}
	return entries, nil
}

// Backlinks returns all note paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// IndexFile extracts data and upserts it into the index.
// Exported so that sync and watcher callbacks can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	res := s.pipeline.Extract(path, data)
	cs := checksum.Sum(data)
	return s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  cs,
		Tags:      nonNilSlice(res.Tags),
		UpdatedAt: time.Now(),
	}, res.Body, res.Links)
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	res := s.pipeline.Extract(path, data)
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Links:       nonNilSlice(res.Links),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
