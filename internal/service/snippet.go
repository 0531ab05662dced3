package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

const (
	MaxTitleLength    = 150
	MaxContentLength  = 100000 // ~100KB of code
	MaxLanguageLength = 50
)

// SnippetService handles the business logic for snippets: validation,
// ownership enforcement, tag resolution, and the read-only query surface.
//
// Ownership rule, applied uniformly: mutate operations fetch the snippet
// first (not-found beats forbidden), then compare its owner's username with
// the caller's proven username. A mismatch is forbidden and leaves storage
// untouched.
type SnippetService struct {
	snippets repository.SnippetRepository
	tags     repository.TagRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(
	snippets repository.SnippetRepository,
	tags repository.TagRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		tags:     tags,
		users:    users,
		logger:   logger,
	}
}

// CreateInput carries everything a snippet create needs besides the owner.
// IsPublic and IsFavorite default to false when the caller omits them.
type CreateInput struct {
	Title      string
	Content    string
	Language   string
	Tags       []string
	IsPublic   bool
	IsFavorite bool
}

// UpdateInput is CreateInput minus the favorite flag: update fully
// replaces title/content/language/isPublic and the tag set, but NEVER
// touches isFavorite — that's ToggleFavorite's job alone.
type UpdateInput struct {
	Title    string
	Content  string
	Language string
	Tags     []string
	IsPublic bool
}

// Create validates and persists a new snippet for the given owner.
//
// Raw tag names are resolved to canonical tag records first (creating any
// that don't exist yet); the snippet row and its associations are then
// written in one transaction by the repository.
func (s *SnippetService) Create(ctx context.Context, ownerUsername string, in CreateInput) (*model.Snippet, error) {
	owner, err := s.users.GetByUsername(ctx, ownerUsername)
	if err != nil {
		return nil, err
	}

	if err := validateSnippetFields(in.Title, in.Content, in.Language); err != nil {
		return nil, err
	}

	resolved, err := s.tags.ResolveOrCreate(ctx, in.Tags)
	if err != nil {
		return nil, fmt.Errorf("resolving tags: %w", err)
	}

	snippet := &model.Snippet{
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		Language:      strings.TrimSpace(in.Language),
		IsPublic:      in.IsPublic,
		IsFavorite:    in.IsFavorite,
		OwnerID:       owner.ID,
		OwnerUsername: owner.Username,
	}

	if err := s.snippets.Create(ctx, snippet, resolved); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("owner", ownerUsername),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("owner", ownerUsername),
		slog.Int("tags", len(resolved)),
	)

	return snippet, nil
}

// Update fully replaces a snippet's title, content, language, public flag,
// and tag set. Old tag associations are dropped (the tag records survive,
// even at zero remaining usage); the new raw names go through the same
// resolve-or-create path as Create.
func (s *SnippetService) Update(ctx context.Context, id, callerUsername string, in UpdateInput) (*model.Snippet, error) {
	snippet, err := s.ownedSnippet(ctx, id, callerUsername)
	if err != nil {
		return nil, err
	}

	if err := validateSnippetFields(in.Title, in.Content, in.Language); err != nil {
		return nil, err
	}

	resolved, err := s.tags.ResolveOrCreate(ctx, in.Tags)
	if err != nil {
		return nil, fmt.Errorf("resolving tags: %w", err)
	}

	snippet.Title = strings.TrimSpace(in.Title)
	snippet.Content = in.Content
	snippet.Language = strings.TrimSpace(in.Language)
	snippet.IsPublic = in.IsPublic
	// snippet.IsFavorite keeps whatever state the fetch returned.

	if err := s.snippets.Update(ctx, snippet, resolved); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", id))
	return snippet, nil
}

// Delete hard-deletes the caller's snippet. Associations cascade away with
// the row; the tags themselves remain in the registry.
func (s *SnippetService) Delete(ctx context.Context, id, callerUsername string) error {
	if _, err := s.ownedSnippet(ctx, id, callerUsername); err != nil {
		return err
	}

	if err := s.snippets.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// ToggleFavorite flips the snippet's favorite flag and returns the updated
// snippet. Two successive toggles restore the original state; a single
// call is intentionally NOT idempotent — it's a flip, not a set.
func (s *SnippetService) ToggleFavorite(ctx context.Context, id, callerUsername string) (*model.Snippet, error) {
	snippet, err := s.ownedSnippet(ctx, id, callerUsername)
	if err != nil {
		return nil, err
	}

	if err := s.snippets.SetFavorite(ctx, id, !snippet.IsFavorite); err != nil {
		return nil, fmt.Errorf("toggling favorite: %w", err)
	}

	// Re-fetch so the caller sees the persisted state (fresh updatedAt
	// included) rather than a locally mutated copy.
	return s.snippets.GetByID(ctx, id)
}

// GetPublicByID retrieves a snippet for the unauthenticated public path.
//
// A private snippet fails with forbidden REGARDLESS of who asks — even its
// owner goes through the authenticated routes instead. This endpoint must
// never leak private content.
func (s *SnippetService) GetPublicByID(ctx context.Context, id string) (*model.Snippet, error) {
	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !snippet.IsPublic {
		return nil, apperror.Forbidden("this snippet is not public")
	}
	return snippet, nil
}

// ListMine returns the caller's snippets, newest first.
func (s *SnippetService) ListMine(ctx context.Context, username string) ([]model.Snippet, error) {
	return s.snippets.ListByOwner(ctx, username)
}

// ListPublic returns all public snippets, newest first.
func (s *SnippetService) ListPublic(ctx context.Context) ([]model.Snippet, error) {
	return s.snippets.ListPublic(ctx)
}

// ListFavorites returns the caller's favorites, newest-updated first.
func (s *SnippetService) ListFavorites(ctx context.Context, username string) ([]model.Snippet, error) {
	return s.snippets.ListFavorites(ctx, username)
}

// Search performs the raw keyword search across ALL snippets — no owner or
// visibility filtering. Exposed as-is on an authenticated route; results
// can include other users' private snippets. Known scope limitation of the
// raw search, kept rather than silently changed.
func (s *SnippetService) Search(ctx context.Context, keyword string) ([]model.Snippet, error) {
	return s.snippets.Search(ctx, keyword)
}

// SearchPublic is the keyword search filtered to public snippets.
func (s *SnippetService) SearchPublic(ctx context.Context, keyword string) ([]model.Snippet, error) {
	return s.snippets.SearchPublic(ctx, keyword)
}

// SearchMine is the keyword search filtered to the caller's snippets.
// Fails with not-found if the username doesn't resolve to a user.
func (s *SnippetService) SearchMine(ctx context.Context, keyword, username string) ([]model.Snippet, error) {
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.snippets.SearchByOwner(ctx, keyword, username)
}

// FindByTag returns snippets carrying the tag, newest first. Like Search,
// no visibility filtering — documented limitation.
func (s *SnippetService) FindByTag(ctx context.Context, tagName string) ([]model.Snippet, error) {
	return s.snippets.FindByTag(ctx, tagName)
}

// ownedSnippet fetches a snippet and enforces that callerUsername owns it.
// Absent snippet → not found; wrong owner → forbidden. The order matters:
// probing an ID you don't own reveals only that it exists, never content.
func (s *SnippetService) ownedSnippet(ctx context.Context, id, callerUsername string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.OwnerUsername != callerUsername {
		return nil, apperror.Forbidden("you do not own this snippet")
	}
	return snippet, nil
}

// validateSnippetFields enforces the required/length rules shared by
// Create and Update.
func validateSnippetFields(title, content, language string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if content == "" {
		return apperror.ValidationFailed("content", "snippet content is required")
	}
	if len(content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("snippet content must be %d characters or less", MaxContentLength))
	}
	if len(language) > MaxLanguageLength {
		return apperror.ValidationFailed("language",
			fmt.Sprintf("language must be %d characters or less", MaxLanguageLength))
	}
	return nil
}
