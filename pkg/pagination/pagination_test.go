package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func paramsFor(target string) Params {
	return FromRequest(httptest.NewRequest(http.MethodGet, target, nil))
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		page    int
		perPage int
		offset  int
	}{
		{"defaults", "/api/v1/history", 1, 20, 0},
		{"explicit values", "/api/v1/history?page=3&per_page=50", 3, 50, 100},
		{"negative page ignored", "/api/v1/history?page=-1", 1, 20, 0},
		{"zero page ignored", "/api/v1/history?page=0", 1, 20, 0},
		{"non-numeric page ignored", "/api/v1/history?page=newest", 1, 20, 0},
		{"per_page over cap ignored", "/api/v1/history?per_page=200", 1, 20, 0},
		{"per_page at cap kept", "/api/v1/history?per_page=100", 1, 100, 0},
		{"zero per_page ignored", "/api/v1/history?per_page=0", 1, 20, 0},
		{"deep page offset", "/api/v1/history?page=5&per_page=25", 5, 25, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(tt.target)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}
