package service

import "errors"

// PageSize matches the ten-row tables the dashboard renders.
const PageSize = 10

// ErrUnsupportedSortKey rejects sort keys outside the enumerated set of
// a listing. Unknown keys fail loudly instead of falling through to an
// arbitrary default order.
var ErrUnsupportedSortKey = errors.New("service: unsupported sort key")

// Page describes one slice of a listing.
type Page struct {
	Number     int `json:"number"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// pageBounds clamps page into range and returns the slice bounds.
func pageBounds(total, page int) (start, end int, meta Page) {
	pages := (total + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start = (page - 1) * PageSize
	end = start + PageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}
	return start, end, Page{Number: page, TotalPages: pages, TotalItems: total}
}

func descending(direction string) bool {
	return direction == "desc"
}
