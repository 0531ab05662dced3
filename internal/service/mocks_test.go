package service

// In-memory fakes for the repository interfaces. These let the service
// tests exercise validation, ownership, and orchestration rules without a
// database; the real SQL behaviour is covered by the sqlite package tests.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// discardLogger silences service logging in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// mockUserRepo
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	users map[string]*model.User // keyed by username
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

// addUser seeds a user directly, bypassing CreateUser.
func (m *mockUserRepo) addUser(username, passwordHash string) *model.User {
	u := &model.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
	}
	m.users[username] = u
	return u
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if _, exists := m.users[user.Username]; exists {
		return apperror.Conflict("user", user.Username)
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Username)
		}
	}
	user.ID = "user-" + user.Username
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return u, nil
}

func (m *mockUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// mockTagRepo
// ---------------------------------------------------------------------------

type mockTagRepo struct {
	tags        map[string]model.Tag // keyed by canonical name
	popular     []model.TagUsage     // canned PopularTags result
	userTags    []model.TagUsage     // canned TagsForUser result
	popularErr  error
	resolveErr  error
	lastResolve []string // canonical names from the most recent ResolveOrCreate
}

var _ repository.TagRepository = (*mockTagRepo)(nil)

func newMockTagRepo() *mockTagRepo {
	return &mockTagRepo{tags: make(map[string]model.Tag)}
}

func (m *mockTagRepo) ResolveOrCreate(_ context.Context, rawNames []string) ([]model.Tag, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}

	seen := make(map[string]struct{})
	names := make([]string, 0, len(rawNames))
	for _, raw := range rawNames {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	m.lastResolve = names

	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		tag, ok := m.tags[name]
		if !ok {
			tag = model.Tag{ID: fmt.Sprintf("tag-%s", name), Name: name}
			m.tags[name] = tag
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (m *mockTagRepo) PopularTags(_ context.Context, limit int) ([]model.TagUsage, error) {
	if m.popularErr != nil {
		return nil, m.popularErr
	}
	if len(m.popular) > limit {
		return m.popular[:limit], nil
	}
	return m.popular, nil
}

func (m *mockTagRepo) TagsForUser(_ context.Context, _ string) ([]model.TagUsage, error) {
	return m.userTags, nil
}

// ---------------------------------------------------------------------------
// mockSnippetRepo
// ---------------------------------------------------------------------------

type mockSnippetRepo struct {
	snippets    map[string]*model.Snippet
	nextID      int
	updateCalls int
	deleteCalls int
}

var _ repository.SnippetRepository = (*mockSnippetRepo)(nil)

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

// addSnippet seeds a stored snippet directly, bypassing Create.
func (m *mockSnippetRepo) addSnippet(id, ownerUsername string, public, favorite bool) *model.Snippet {
	s := &model.Snippet{
		ID:            id,
		Title:         "seed title",
		Content:       "seed content",
		IsPublic:      public,
		IsFavorite:    favorite,
		OwnerID:       "user-" + ownerUsername,
		OwnerUsername: ownerUsername,
		Tags:          []model.Tag{},
	}
	m.snippets[id] = s
	return s
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet, tags []model.Tag) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("snippet-%d", m.nextID)
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	snippet.Tags = tags
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	copied := *s
	return &copied, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet, tags []model.Tag) error {
	m.updateCalls++
	stored, ok := m.snippets[snippet.ID]
	if !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	snippet.UpdatedAt = time.Now()
	snippet.Tags = tags
	snippet.IsFavorite = stored.IsFavorite // update never touches the flag
	copied := *snippet
	m.snippets[snippet.ID] = &copied
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	m.deleteCalls++
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

func (m *mockSnippetRepo) SetFavorite(_ context.Context, id string, favorite bool) error {
	s, ok := m.snippets[id]
	if !ok {
		return apperror.NotFound("snippet", id)
	}
	s.IsFavorite = favorite
	s.UpdatedAt = time.Now()
	return nil
}

func (m *mockSnippetRepo) ListByOwner(_ context.Context, username string) ([]model.Snippet, error) {
	return m.filter(func(s *model.Snippet) bool { return s.OwnerUsername == username }), nil
}

func (m *mockSnippetRepo) ListPublic(_ context.Context) ([]model.Snippet, error) {
	return m.filter(func(s *model.Snippet) bool { return s.IsPublic }), nil
}

func (m *mockSnippetRepo) ListFavorites(_ context.Context, username string) ([]model.Snippet, error) {
	return m.filter(func(s *model.Snippet) bool {
		return s.OwnerUsername == username && s.IsFavorite
	}), nil
}

func (m *mockSnippetRepo) Search(_ context.Context, keyword string) ([]model.Snippet, error) {
	return m.filter(func(s *model.Snippet) bool { return matches(s, keyword) }), nil
}

func (m *mockSnippetRepo) SearchPublic(_ context.Context, keyword string) ([]model.Snippet, error) {
	return m.filter(func(s *model.Snippet) bool { return s.IsPublic && matches(s, keyword) }), nil
}

func (m *mockSnippetRepo) SearchByOwner(_ context.Context, keyword, username string) ([]model.Snippet, error) {
	return m.filter(func(s *model.Snippet) bool {
		return s.OwnerUsername == username && matches(s, keyword)
	}), nil
}

func (m *mockSnippetRepo) FindByTag(_ context.Context, tagName string) ([]model.Snippet, error) {
	want := strings.ToLower(strings.TrimSpace(tagName))
	return m.filter(func(s *model.Snippet) bool {
		for _, t := range s.Tags {
			if t.Name == want {
				return true
			}
		}
		return false
	}), nil
}

func (m *mockSnippetRepo) filter(keep func(*model.Snippet) bool) []model.Snippet {
	out := make([]model.Snippet, 0)
	for _, s := range m.snippets {
		if keep(s) {
			out = append(out, *s)
		}
	}
	return out
}

func matches(s *model.Snippet, keyword string) bool {
	k := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(s.Title), k) ||
		strings.Contains(strings.ToLower(s.Content), k) ||
		strings.Contains(strings.ToLower(s.Language), k)
}
