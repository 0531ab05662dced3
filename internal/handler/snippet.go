package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/service"
)

// SnippetHandler manages the snippet CRUD and query endpoints.
//
// Identity on the owner-scoped routes comes exclusively from the request
// context, where the auth middleware placed the JWT-proven username.
// Request bodies carry NO identity field — a client cannot act as someone
// else by naming them.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// snippetRequest is the body for both create and update. On create,
// isFavorite defaults to false when omitted; on update it is IGNORED
// entirely (the toggle endpoint owns that flag).
type snippetRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Language   string   `json:"language"`
	Tags       []string `json:"tags"`
	IsPublic   bool     `json:"isPublic"`
	IsFavorite bool     `json:"isFavorite"`
}

// HandleCreate saves a new snippet for the authenticated user.
//
// HTTP: POST /api/snippets
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	snippet, err := h.snippets.Create(r.Context(), username, service.CreateInput{
		Title:      req.Title,
		Content:    req.Content,
		Language:   req.Language,
		Tags:       req.Tags,
		IsPublic:   req.IsPublic,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate fully replaces a snippet's fields and tag set.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	snippet, err := h.snippets.Update(r.Context(), r.PathValue("id"), username, service.UpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		Language: req.Language,
		Tags:     req.Tags,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	if err := h.snippets.Delete(r.Context(), r.PathValue("id"), username); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleFavorite flips the favorite flag on a snippet.
//
// HTTP: PATCH /api/snippets/{id}/favorite
func (h *SnippetHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	snippet, err := h.snippets.ToggleFavorite(r.Context(), r.PathValue("id"), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleListMine returns the authenticated user's snippets, newest first.
//
// HTTP: GET /api/snippets/my
func (h *SnippetHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	snippets, err := h.snippets.ListMine(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleListFavorites returns the authenticated user's favorites,
// newest-updated first.
//
// HTTP: GET /api/snippets/favorites
func (h *SnippetHandler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	snippets, err := h.snippets.ListFavorites(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleListPublic returns all public snippets. No authentication.
//
// HTTP: GET /api/snippets/public
func (h *SnippetHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.ListPublic(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetPublicByID returns a single PUBLIC snippet. Private snippets
// fail with 403 no matter who asks — this route carries no identity at
// all.
//
// HTTP: GET /api/snippets/public/{id}
func (h *SnippetHandler) HandleGetPublicByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetPublicByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleSearch is the RAW keyword search: substring match on title,
// content, or language across every snippet, with no visibility filtering.
//
// HTTP: GET /api/snippets/search?keyword=...
func (h *SnippetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.Search(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleSearchPublic is the keyword search over public snippets only.
// No authentication.
//
// HTTP: GET /api/snippets/public/search?keyword=...
func (h *SnippetHandler) HandleSearchPublic(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.SearchPublic(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleSearchMine is the keyword search over the caller's own snippets.
//
// HTTP: GET /api/snippets/my/search?keyword=...
func (h *SnippetHandler) HandleSearchMine(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	snippets, err := h.snippets.SearchMine(r.Context(), r.URL.Query().Get("keyword"), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleFindByTag returns snippets carrying a tag, case-insensitively.
//
// HTTP: GET /api/snippets/tag/{tag}
func (h *SnippetHandler) HandleFindByTag(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.FindByTag(r.Context(), r.PathValue("tag"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}
