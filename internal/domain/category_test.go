package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCrawlable(t *testing.T) {
	tests := []struct {
		name  string
		shard *string
		want  bool
	}{
		{"regular shard", strPtr("bl_shirts"), true},
		{"nil shard", nil, false},
		{"empty shard", strPtr(""), false},
		{"blackhole shard", strPtr("blackhole_main"), false},
		{"preset shard", strPtr("presets/women_clothes"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Category{Shard: tt.shard}
			assert.Equal(t, tt.want, c.Crawlable())
		})
	}
}

func TestShardAndQueryValues(t *testing.T) {
	c := Category{}
	assert.Empty(t, c.ShardValue())
	assert.Empty(t, c.QueryValue())

	c = Category{Shard: strPtr("electronic"), Query: strPtr("cat=515")}
	assert.Equal(t, "electronic", c.ShardValue())
	assert.Equal(t, "cat=515", c.QueryValue())
}
