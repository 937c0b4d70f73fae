package httpx

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		page     int
		pageSize int
	}{
		{"defaults", "/api/users", 1, DefaultPageSize},
		{"explicit values", "/api/users?page=3&page_size=50", 3, 50},
		{"page size capped", "/api/users?page_size=5000", 1, MaxPageSize},
		{"zero values fall back", "/api/users?page=0&page_size=0", 1, DefaultPageSize},
		{"negative values fall back", "/api/users?page=-2&page_size=-10", 1, DefaultPageSize},
		{"garbage falls back", "/api/users?page=abc&page_size=xyz", 1, DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(httptest.NewRequest("GET", tt.url, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.pageSize, p.PageSize)
		})
	}
}

func TestPageParamsOffset(t *testing.T) {
	assert.Equal(t, 0, PageParams{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, PageParams{Page: 3, PageSize: 20}.Offset())
}

func TestNewPageData(t *testing.T) {
	tests := []struct {
		name       string
		totalCount int64
		pageSize   int
		totalPages int64
	}{
		{"exact multiple", 40, 20, 2},
		{"partial last page", 41, 20, 3},
		{"empty result", 0, 20, 0},
		{"single short page", 5, 20, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewPageData([]string{}, tt.totalCount, PageParams{Page: 1, PageSize: tt.pageSize})
			assert.Equal(t, tt.totalCount, d.Pagination.TotalCount)
			assert.Equal(t, tt.totalPages, d.Pagination.TotalPages)
			assert.Equal(t, 1, d.Pagination.CurrentPage)
			assert.Equal(t, tt.pageSize, d.Pagination.PageSize)
		})
	}
}
