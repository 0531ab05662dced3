package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// compile-time check that *DB implements repository.TagRepository
var _ repository.TagRepository = (*DB)(nil)

// canonicalTagNames normalizes raw tag names into their canonical form:
// trimmed, lowercased, empties discarded, duplicates collapsed. The result
// is sorted so callers get a deterministic order regardless of input order.
//
// Normalizing BEFORE any query matters: {"Go", "go "} must produce one
// lookup and at most one insert, not two insert attempts racing against the
// UNIQUE constraint.
func canonicalTagNames(rawNames []string) []string {
	seen := make(map[string]struct{}, len(rawNames))
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
	return names
}

// ResolveOrCreate maps raw tag names to canonical tag records, creating the
// ones that don't exist yet.
//
// Concurrent requests may race to create the same new tag. The UNIQUE
// constraint on tags.name guarantees only one row wins; the loser detects
// the unique violation and falls back to fetching the now-existing row —
// bounded to that single retry, no loop.
func (db *DB) ResolveOrCreate(ctx context.Context, rawNames []string) ([]model.Tag, error) {
	names := canonicalTagNames(rawNames)
	tags := make([]model.Tag, 0, len(names))

	for _, name := range names {
		tag, err := db.getTagByName(ctx, name)
		if err == nil {
			tags = append(tags, *tag)
			continue
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("sqlite: looking up tag %q: %w", name, err)
		}

		// Tag doesn't exist — try to create it.
		created := model.Tag{ID: xid.New().String(), Name: name}
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO tags (id, name) VALUES (?, ?)`,
			created.ID, created.Name,
		)
		if err == nil {
			tags = append(tags, created)
			continue
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("sqlite: inserting tag %q: %w", name, err)
		}

		// Lost the creation race — another request inserted the same name
		// between our lookup and insert. Re-fetch the winner's row.
		tag, err = db.getTagByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("sqlite: re-fetching tag %q after conflict: %w", name, err)
		}
		tags = append(tags, *tag)
	}

	return tags, nil
}

// getTagByName looks up a tag by its canonical name. The NOCASE collation
// on the column makes the comparison case-insensitive either way.
// Returns sql.ErrNoRows (unwrapped) when absent — callers branch on it.
func (db *DB) getTagByName(ctx context.Context, name string) (*model.Tag, error) {
	var t model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE name = ?`, name,
	).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// PopularTags returns the most used tags across ALL snippets — no owner or
// visibility filtering (counts include private snippets; only the counts
// are exposed, never the content). Zero-usage tags are excluded by the
// INNER JOIN, order is usage descending with ties in unspecified order.
func (db *DB) PopularTags(ctx context.Context, limit int) ([]model.TagUsage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name, COUNT(st.snippet_id) AS usage_count
		 FROM tags t
		 JOIN snippet_tags st ON st.tag_id = t.id
		 GROUP BY t.id, t.name
		 ORDER BY usage_count DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing popular tags: %w", err)
	}
	defer rows.Close()

	return scanTagUsage(rows)
}

// TagsForUser returns the tags used by the given user's snippets with
// per-user usage counts, sorted by tag name ascending.
func (db *DB) TagsForUser(ctx context.Context, username string) ([]model.TagUsage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name, COUNT(st.snippet_id) AS usage_count
		 FROM tags t
		 JOIN snippet_tags st ON st.tag_id = t.id
		 JOIN snippets s ON s.id = st.snippet_id
		 JOIN users u ON u.id = s.user_id
		 WHERE u.username = ?
		 GROUP BY t.id, t.name
		 ORDER BY t.name ASC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags for user %s: %w", username, err)
	}
	defer rows.Close()

	return scanTagUsage(rows)
}

// scanTagUsage reads (id, name, usage_count) rows into TagUsage values.
func scanTagUsage(rows *sql.Rows) ([]model.TagUsage, error) {
	usages := make([]model.TagUsage, 0)
	for rows.Next() {
		var u model.TagUsage
		if err := rows.Scan(&u.ID, &u.Name, &u.UsageCount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag usage row: %w", err)
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tag usage rows: %w", err)
	}
	return usages, nil
}
