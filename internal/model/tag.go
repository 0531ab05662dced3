package model

// Tag is a canonical, deduplicated label shared by many snippets.
//
// Name is always stored in canonical form: trimmed and lowercased. The
// database enforces uniqueness case-insensitively, so "Go", "go" and "GO "
// all resolve to the single tag "go".
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagUsage pairs a tag with the number of snippets referencing it.
// Returned by the aggregation queries (popular tags, per-user tags).
type TagUsage struct {
	Tag
	UsageCount int `json:"usageCount"`
}
