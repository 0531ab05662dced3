package model

import "time"

// Snippet represents a saved piece of code with its metadata.
//
// A snippet is exclusively owned by one user (OwnerID). Deleting the user
// deletes their snippets; deleting a snippet only removes its tag
// associations — the tags themselves are shared records and survive.
//
// OwnerUsername is not a column on the snippets table; the repository joins
// it in from users so ownership checks can compare usernames directly
// (identity arrives from the JWT as a username, not an ID).
type Snippet struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Language      string    `json:"language,omitempty"`
	IsFavorite    bool      `json:"isFavorite"`
	IsPublic      bool      `json:"isPublic"`
	OwnerID       string    `json:"-"`
	OwnerUsername string    `json:"ownerUsername"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Tags          []Tag     `json:"tags"`
}

// TagNames returns just the names of the snippet's tags.
// Handy for responses and assertions; order follows Tags.
func (s *Snippet) TagNames() []string {
	names := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		names = append(names, t.Name)
	}
	return names
}
