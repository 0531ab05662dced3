package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

// selectSnippet is the column list shared by every snippet query. The
// owner's username is joined in from users so ownership checks and
// responses never need a second lookup.
const selectSnippet = `
	SELECT s.id, s.title, s.content, s.language, s.is_favorite, s.is_public,
	       s.user_id, u.username, s.created_at, s.updated_at
	FROM snippets s
	JOIN users u ON u.id = s.user_id`

// Create inserts the snippet row and its tag associations in a single
// transaction — either both land or neither does. The tags must already be
// resolved (ResolveOrCreate); this method only writes the join rows.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet, tags []model.Tag) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	snippet.Tags = tags

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning create transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op, so the defer is safe
	// on every path out of this function.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snippets (id, title, content, language, is_favorite, is_public, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Content,
		snippet.Language,
		snippet.IsFavorite,
		snippet.IsPublic,
		snippet.OwnerID,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting snippet: %w", err)
	}

	if err := insertSnippetTags(ctx, tx, snippet.ID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet create: %w", err)
	}
	return nil
}

// GetByID retrieves a single snippet with its owner username and tag set
// loaded. Returns apperror.ErrNotFound if no such snippet exists.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var s model.Snippet
	err := db.conn.QueryRowContext(ctx, selectSnippet+` WHERE s.id = ?`, id).Scan(
		&s.ID, &s.Title, &s.Content, &s.Language, &s.IsFavorite, &s.IsPublic,
		&s.OwnerID, &s.OwnerUsername, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	snippets := []model.Snippet{s}
	if err := db.attachTags(ctx, snippets); err != nil {
		return nil, err
	}
	return &snippets[0], nil
}

// Update fully replaces title, content, language and the public flag, and
// swaps the tag set with clear-then-repopulate semantics. is_favorite is
// deliberately absent from the UPDATE — only SetFavorite touches it.
//
// The row update and both tag-association statements share one
// transaction.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet, tags []model.Tag) error {
	snippet.UpdatedAt = time.Now()
	snippet.Tags = tags

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning update transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, content = ?, language = ?, is_public = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Content,
		snippet.Language,
		snippet.IsPublic,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	// Clear-then-repopulate: old associations go away, new ones come in.
	// The tag ROWS themselves are never deleted, even if this drops their
	// usage to zero.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ?`, snippet.ID,
	); err != nil {
		return fmt.Errorf("sqlite: clearing tags for snippet %s: %w", snippet.ID, err)
	}

	if err := insertSnippetTags(ctx, tx, snippet.ID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet update: %w", err)
	}
	return nil
}

// Delete hard-deletes a snippet. The snippet_tags rows cascade via the
// foreign key; the tags survive with whatever usage count remains.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}

// SetFavorite sets the favorite flag. updated_at is bumped too — the
// favorites listing is ordered by it, so a freshly toggled snippet rises
// to the top.
func (db *DB) SetFavorite(ctx context.Context, id string, favorite bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET is_favorite = ?, updated_at = ? WHERE id = ?`,
		favorite, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting favorite on snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}

// ListByOwner returns all snippets owned by the given username, newest
// first by creation time.
func (db *DB) ListByOwner(ctx context.Context, username string) ([]model.Snippet, error) {
	return db.querySnippets(ctx,
		selectSnippet+` WHERE u.username = ? ORDER BY s.created_at DESC`,
		username,
	)
}

// ListPublic returns all public snippets, newest first by creation time.
func (db *DB) ListPublic(ctx context.Context) ([]model.Snippet, error) {
	return db.querySnippets(ctx,
		selectSnippet+` WHERE s.is_public = 1 ORDER BY s.created_at DESC`,
	)
}

// ListFavorites returns the owner's favorite snippets, newest first by
// UPDATE time (not creation) — recently touched favorites surface first.
func (db *DB) ListFavorites(ctx context.Context, username string) ([]model.Snippet, error) {
	return db.querySnippets(ctx,
		selectSnippet+` WHERE u.username = ? AND s.is_favorite = 1 ORDER BY s.updated_at DESC`,
		username,
	)
}

// Search performs a case-insensitive substring match against title,
// content, or language across ALL snippets, in storage order.
//
// There is NO owner or visibility filtering here — callers must scope the
// results (see SearchPublic / SearchByOwner). Handing this raw query to a
// new caller without a filter is an authorization gap waiting to happen;
// the scoped variants exist precisely so routes never have to filter by
// hand.
func (db *DB) Search(ctx context.Context, keyword string) ([]model.Snippet, error) {
	pattern := likePattern(keyword)
	return db.querySnippets(ctx,
		selectSnippet+`
		 WHERE lower(s.title) LIKE ? ESCAPE '\'
		    OR lower(s.content) LIKE ? ESCAPE '\'
		    OR lower(s.language) LIKE ? ESCAPE '\'`,
		pattern, pattern, pattern,
	)
}

// SearchPublic is Search restricted to public snippets.
func (db *DB) SearchPublic(ctx context.Context, keyword string) ([]model.Snippet, error) {
	pattern := likePattern(keyword)
	return db.querySnippets(ctx,
		selectSnippet+`
		 WHERE s.is_public = 1
		   AND (lower(s.title) LIKE ? ESCAPE '\'
		     OR lower(s.content) LIKE ? ESCAPE '\'
		     OR lower(s.language) LIKE ? ESCAPE '\')`,
		pattern, pattern, pattern,
	)
}

// SearchByOwner is Search restricted to snippets owned by the given user.
func (db *DB) SearchByOwner(ctx context.Context, keyword, username string) ([]model.Snippet, error) {
	pattern := likePattern(keyword)
	return db.querySnippets(ctx,
		selectSnippet+`
		 WHERE u.username = ?
		   AND (lower(s.title) LIKE ? ESCAPE '\'
		     OR lower(s.content) LIKE ? ESCAPE '\'
		     OR lower(s.language) LIKE ? ESCAPE '\')`,
		username, pattern, pattern, pattern,
	)
}

// FindByTag returns snippets carrying the given tag (case-insensitive
// exact name match — the NOCASE collation on tags.name handles casing),
// newest first. No visibility filtering, same caveat as Search.
func (db *DB) FindByTag(ctx context.Context, tagName string) ([]model.Snippet, error) {
	return db.querySnippets(ctx,
		selectSnippet+`
		 JOIN snippet_tags st ON st.snippet_id = s.id
		 JOIN tags t ON t.id = st.tag_id
		 WHERE t.name = ?
		 ORDER BY s.created_at DESC`,
		strings.TrimSpace(tagName),
	)
}

// likePattern builds the %keyword% LIKE pattern, lowercased to pair with
// the lower() calls in the queries. LIKE metacharacters in the keyword are
// escaped so "50%" matches literally.
func likePattern(keyword string) string {
	k := strings.ToLower(keyword)
	k = strings.ReplaceAll(k, `\`, `\\`)
	k = strings.ReplaceAll(k, `%`, `\%`)
	k = strings.ReplaceAll(k, `_`, `\_`)
	return "%" + k + "%"
}

// querySnippets runs a snippet SELECT, scans the rows, and attaches tag
// sets with one additional query (instead of one per snippet).
func (db *DB) querySnippets(ctx context.Context, query string, args ...any) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Content, &s.Language, &s.IsFavorite, &s.IsPublic,
			&s.OwnerID, &s.OwnerUsername, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	if err := db.attachTags(ctx, snippets); err != nil {
		return nil, err
	}
	return snippets, nil
}

// attachTags loads the tag sets for a batch of snippets with a single
// query over the join table — an explicit indexed lookup instead of the
// lazy per-snippet traversal an ORM would do (which is an N+1 in disguise).
func (db *DB) attachTags(ctx context.Context, snippets []model.Snippet) error {
	if len(snippets) == 0 {
		return nil
	}

	byID := make(map[string]*model.Snippet, len(snippets))
	placeholders := make([]string, 0, len(snippets))
	args := make([]any, 0, len(snippets))
	for i := range snippets {
		snippets[i].Tags = []model.Tag{}
		byID[snippets[i].ID] = &snippets[i]
		placeholders = append(placeholders, "?")
		args = append(args, snippets[i].ID)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT st.snippet_id, t.id, t.name
		 FROM snippet_tags st
		 JOIN tags t ON t.id = st.tag_id
		 WHERE st.snippet_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY t.name ASC`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading snippet tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var snippetID string
		var t model.Tag
		if err := rows.Scan(&snippetID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("sqlite: scanning snippet tag row: %w", err)
		}
		if s, ok := byID[snippetID]; ok {
			s.Tags = append(s.Tags, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating snippet tags: %w", err)
	}
	return nil
}

// insertSnippetTags writes the join rows for a snippet inside an open
// transaction. Tags arrive deduplicated from ResolveOrCreate, so the
// composite primary key never trips.
func insertSnippetTags(ctx context.Context, tx *sql.Tx, snippetID string, tags []model.Tag) error {
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snippet_tags (snippet_id, tag_id) VALUES (?, ?)`,
			snippetID, tag.ID,
		); err != nil {
			return fmt.Errorf("sqlite: associating tag %s with snippet %s: %w", tag.Name, snippetID, err)
		}
	}
	return nil
}
