package httpx

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageParams struct {
	Page     int
	PageSize int
}

// ParsePageParams reads page/page_size query parameters, clamping to sane
// bounds. Invalid values fall back to defaults rather than erroring.
func ParsePageParams(r *http.Request) PageParams {
	p := PageParams{Page: 1, PageSize: DefaultPageSize}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		p.PageSize = v
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Pagination struct {
	TotalCount  int64 `json:"total_count"`
	TotalPages  int64 `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

type PageData struct {
	List       any        `json:"list"`
	Pagination Pagination `json:"pagination"`
}

func NewPageData(list any, totalCount int64, params PageParams) PageData {
	totalPages := totalCount / int64(params.PageSize)
	if totalCount%int64(params.PageSize) != 0 {
		totalPages++
	}
	return PageData{
		List: list,
		Pagination: Pagination{
			TotalCount:  totalCount,
			TotalPages:  totalPages,
			CurrentPage: params.Page,
			PageSize:    params.PageSize,
		},
	}
}
