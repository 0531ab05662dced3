// Package repository defines the storage interfaces the service layer
// depends on. The concrete implementation lives in repository/sqlite;
// services only ever see these interfaces, which is what lets the tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/snippet-vault/internal/model"
)

// UserRepository is the credential store: account identity plus the bcrypt
// password hash.
type UserRepository interface {
	// CreateUser persists a new user. Username and email uniqueness is
	// enforced by the storage layer's constraints (NOT by a check-then-
	// insert, which would be racy); a violation surfaces as
	// apperror.ErrConflict.
	//
	// Named CreateUser rather than Create because one concrete type
	// implements every repository interface here, and the snippet
	// aggregate already claims Create on that receiver.
	CreateUser(ctx context.Context, user *model.User) error

	// GetByUsername returns the user or apperror.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TagRepository is the tag registry: canonical deduplicated tag records and
// the usage aggregations over them.
type TagRepository interface {
	// ResolveOrCreate maps raw tag names to canonical tag records,
	// creating missing ones. Input names are trimmed, lowercased and
	// deduplicated before any query; empty results are discarded. Two
	// concurrent calls racing to create the same new name both succeed —
	// the loser re-fetches the winner's row instead of erroring.
	ResolveOrCreate(ctx context.Context, rawNames []string) ([]model.Tag, error)

	// PopularTags returns global (tag, usageCount) pairs, usage counted
	// across ALL snippets regardless of owner or visibility, sorted by
	// count descending, zero-usage tags excluded, capped at limit.
	PopularTags(ctx context.Context, limit int) ([]model.TagUsage, error)

	// TagsForUser returns (tag, usageCount) restricted to snippets owned
	// by the given user, sorted by tag name ascending.
	TagsForUser(ctx context.Context, username string) ([]model.TagUsage, error)
}

// SnippetRepository owns snippet rows and their tag associations. Every
// mutation is a single transactional unit: the snippet row and its
// snippet_tags rows change together or not at all.
type SnippetRepository interface {
	// Create persists the snippet and associates the given (already
	// resolved) tags.
	Create(ctx context.Context, snippet *model.Snippet, tags []model.Tag) error

	// GetByID returns the snippet with tags and owner username loaded,
	// or apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Snippet, error)

	// Update fully replaces title/content/language/isPublic and the tag
	// set (clear-then-repopulate). It does NOT touch isFavorite.
	Update(ctx context.Context, snippet *model.Snippet, tags []model.Tag) error

	// Delete hard-deletes the snippet; tag associations cascade, tag
	// records survive.
	Delete(ctx context.Context, id string) error

	// SetFavorite sets the favorite flag and bumps updatedAt.
	SetFavorite(ctx context.Context, id string, favorite bool) error

	// ListByOwner returns the owner's snippets, newest-created first.
	ListByOwner(ctx context.Context, username string) ([]model.Snippet, error)

	// ListPublic returns public snippets, newest-created first.
	ListPublic(ctx context.Context) ([]model.Snippet, error)

	// ListFavorites returns the owner's favorites, newest-updated first.
	ListFavorites(ctx context.Context, username string) ([]model.Snippet, error)

	// Search does a case-insensitive substring match against title,
	// content, or language across ALL snippets — no owner or visibility
	// filtering. Callers are responsible for post-filtering; see the
	// scoped variants below.
	Search(ctx context.Context, keyword string) ([]model.Snippet, error)

	// SearchPublic is Search restricted to public snippets.
	SearchPublic(ctx context.Context, keyword string) ([]model.Snippet, error)

	// SearchByOwner is Search restricted to one owner's snippets.
	SearchByOwner(ctx context.Context, keyword, username string) ([]model.Snippet, error)

	// FindByTag returns snippets carrying the tag (case-insensitive exact
	// name match), newest-created first. No visibility filtering.
	FindByTag(ctx context.Context, tagName string) ([]model.Snippet, error)
}
