package services

import "goalmateAPI/internal/feed"

// Pagination is shared with the feed package so every list endpoint
// reports the same shape.
type Pagination = feed.Pagination

const DefaultPageSize = feed.DefaultPageSize

func paginationFor(page, pageSize, total int) Pagination {
	pageCount := 0
	if total > 0 {
		pageCount = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:          page,
		PageCount:     pageCount,
		PageSize:      pageSize,
		TotalDocument: total,
	}
}
