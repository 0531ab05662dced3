package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// PopularTagLimit caps the global popular-tags listing.
const PopularTagLimit = 20

// TagService exposes the tag aggregation views. Tag CREATION happens as a
// side effect of snippet writes (SnippetService → ResolveOrCreate); this
// service is read-only.
type TagService struct {
	tags   repository.TagRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewTagService creates a TagService.
func NewTagService(tags repository.TagRepository, users repository.UserRepository, logger *slog.Logger) *TagService {
	return &TagService{
		tags:   tags,
		users:  users,
		logger: logger,
	}
}

// PopularTags returns the top tags by global usage count — counted across
// every snippet regardless of owner or visibility — capped at
// PopularTagLimit, usage descending, zero-usage tags excluded.
func (s *TagService) PopularTags(ctx context.Context) ([]model.TagUsage, error) {
	usages, err := s.tags.PopularTags(ctx, PopularTagLimit)
	if err != nil {
		s.logger.Error("failed to list popular tags", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing popular tags: %w", err)
	}
	return usages, nil
}

// TagsForUser returns the caller's tags with per-user usage counts, sorted
// by name. Fails with not-found if the username doesn't resolve.
func (s *TagService) TagsForUser(ctx context.Context, username string) ([]model.TagUsage, error) {
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	}

	usages, err := s.tags.TagsForUser(ctx, username)
	if err != nil {
		s.logger.Error("failed to list user tags",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing tags for %s: %w", username, err)
	}
	return usages, nil
}
