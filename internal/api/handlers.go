package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nordvang/varden/internal/apperr"
	"github.com/nordvang/varden/internal/index"
	"github.com/nordvang/varden/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Content string `json:"content" example:"# Hello\nWorld" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []noteservice.NoteListItem `json:"notes" validate:"required"`
	Total int                        `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with optional pagination and filtering
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, title, path)
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")
	sort := q.Get("sort")

	items, total, err := h.svc.ListNotes(r.Context(), limit, offset, tag, sort)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "path and content are required")
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "note already exists")
		} else {
			slog.Error("create note failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/*.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Note path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body	body		UpdateNoteRequest	true	"Updated content"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	note, err := h.svc.UpdateNote(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "checksum mismatch")
		default:
			slog.Error("update note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/*.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			path	path	string	true	"Note path"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := h.svc.DeleteNote(r.Context(), path); err != nil {
		slog.Error("delete note failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// RenderNote handles GET /api/render/*. It returns the processed document:
// final HTML plus the extracted component descriptors.
//
//	@Summary		Render a note through the full markdown pipeline
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	noteservice.RenderedNote
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render/{path} [get]
func (h *Handler) RenderNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	doc, err := h.svc.RenderNote(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("render note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the corpus-wide knowledge graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	graph.Data
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context())
	if err != nil {
		h.graphError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// LocalGraph handles GET /api/graph/local/*. depth defaults to 1.
//
//	@Summary		Get the neighborhood graph around one note
//	@Tags			graph
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Param			depth	query		int		false	"Hops from the center node"
//	@Success		200		{object}	graph.Data
//	@Security		BearerAuth
//	@Router			/graph/local/{path} [get]
func (h *Handler) LocalGraph(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	depth, _ := strconv.Atoi(r.URL.Query().Get("depth"))
	if depth <= 0 {
		depth = 1
	}
	g, err := h.svc.LocalGraph(r.Context(), path, depth)
	if err != nil {
		h.graphError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// TagGraph handles GET /api/graph/tag/{tag}.
//
//	@Summary		Get the hub-and-spoke graph for one tag
//	@Tags			graph
//	@Produce		json
//	@Param			tag	path		string	true	"Tag without # prefix"
//	@Success		200	{object}	graph.Data
//	@Security		BearerAuth
//	@Router			/graph/tag/{tag} [get]
func (h *Handler) TagGraph(w http.ResponseWriter, r *http.Request) {
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil || tag == "" {
		writeError(w, http.StatusBadRequest, "tag is required")
		return
	}
	g, gerr := h.svc.TagGraph(r.Context(), tag)
	if gerr != nil {
		h.graphError(w, gerr)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GraphStats handles GET /api/graph/stats.
//
//	@Summary		Get summary statistics for the knowledge graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	graph.Statistics
//	@Security		BearerAuth
//	@Router			/graph/stats [get]
func (h *Handler) GraphStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GraphStats(r.Context())
	if err != nil {
		h.graphError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) graphError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperr.ErrIndexUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "metadata index unavailable")
		return
	}
	slog.Error("graph failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}
