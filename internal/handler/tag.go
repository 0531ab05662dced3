package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/service"
)

// TagHandler exposes the tag aggregation endpoints.
type TagHandler struct {
	tags   *service.TagService
	logger *slog.Logger
}

// NewTagHandler creates a TagHandler.
func NewTagHandler(tags *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger}
}

// HandleListMine returns the authenticated user's tags with per-user
// usage counts, sorted by name.
//
// HTTP: GET /api/tags
func (h *TagHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	usages, err := h.tags.TagsForUser(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, usages)
}

// HandlePopular returns the global top-20 tags by usage count.
// No authentication — only tag names and counts are exposed, never
// snippet content.
//
// HTTP: GET /api/tags/popular
func (h *TagHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	usages, err := h.tags.PopularTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, usages)
}
