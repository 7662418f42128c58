package domain

import "strings"

// Category is a node of the marketplace category tree. Categories are loaded
// once by the bootstrap loader and are read-only during a crawl.
type Category struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	ParentID *int64  `json:"parent_id,omitempty"`
	URL      string  `json:"url"`
	Shard    *string `json:"shard,omitempty"`
	Query    *string `json:"query,omitempty"`
	Children bool    `json:"children"`
}

// Shard values that mark a category as having no queryable catalog backend.
const (
	shardBlackhole = "blackhole"
	shardPreset    = "preset"
)

// Crawlable reports whether the category can be enumerated: the shard must be
// non-empty and must not route to a blackhole or preset landing.
func (c *Category) Crawlable() bool {
	if c.Shard == nil || *c.Shard == "" {
		return false
	}
	if strings.Contains(*c.Shard, shardBlackhole) || strings.Contains(*c.Shard, shardPreset) {
		return false
	}
	return true
}

// ShardValue returns the shard path segment or "" when absent.
func (c *Category) ShardValue() string {
	if c.Shard == nil {
		return ""
	}
	return *c.Shard
}

// QueryValue returns the catalog query fragment or "" when absent.
func (c *Category) QueryValue() string {
	if c.Query == nil {
		return ""
	}
	return *c.Query
}
