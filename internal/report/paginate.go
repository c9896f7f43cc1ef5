package report

import "fmt"

// PageInfo describes one page of an ordered row list. Start and End are the
// half-open slice bounds into the full list.
type PageInfo struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	Start       int  `json:"-"`
	End         int  `json:"-"`
	Clamped     bool `json:"-"`
}

// Paginate computes the slice bounds for the requested 1-based page.
// totalPages is max(1, ceil(totalItems/pageSize)), so an empty list still has
// one valid, empty page. The requested page is clamped into [1, totalPages]
// before the bounds are computed; Clamped tells the caller its stored page
// drifted and needs updating. A non-positive pageSize is a ConfigError.
func Paginate(totalItems, pageSize, requested int) (PageInfo, error) {
	if pageSize <= 0 {
		return PageInfo{}, &ConfigError{Msg: fmt.Sprintf("page size must be positive, got %d", pageSize)}
	}
	if totalItems < 0 {
		return PageInfo{}, &ConfigError{Msg: fmt.Sprintf("negative item count %d", totalItems)}
	}

	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := requested
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	return PageInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		Start:       start,
		End:         end,
		Clamped:     page != requested,
	}, nil
}
