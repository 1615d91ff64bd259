// Package pagination filters and slices cached collections into pages with
// the navigation text agents rely on to request further pages.
package pagination

import (
	"fmt"
	"strings"

	"github.com/ggonzalez94/ledgertools/internal/model"
)

const (
	MinPageSize = 1
	MaxPageSize = 100
)

type Page[T any] struct {
	Items []T
	Meta  model.PaginationMeta
}

// Filter keeps items where any field contains query, case-insensitively.
// An empty query returns items unchanged.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	if query == "" {
		return items
	}
	needle := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// ValidRequest reports whether page and pageSize are acceptable. Callers
// reject invalid requests; Paginate never clamps them.
func ValidRequest(page, pageSize int) bool {
	return page >= 1 && pageSize >= MinPageSize && pageSize <= MaxPageSize
}

// Paginate slices items for the requested page. Pages past the end are
// clamped to the last page. noun is the plural item name used in the
// summary text.
func Paginate[T any](items []T, page, pageSize int, noun string) Page[T] {
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if page < 1 {
		page = 1
	}

	totalCount := len(items)
	totalPages := (totalCount + pageSize - 1) / pageSize
	validPage := min(page, max(totalPages, 1))

	start := (validPage - 1) * pageSize
	end := min(start+pageSize, totalCount)
	if start > totalCount {
		start = totalCount
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	remainingPages := max(totalPages-validPage, 0)
	meta := model.PaginationMeta{
		Page:            validPage,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		TotalCount:      totalCount,
		HasNextPage:     validPage < totalPages,
		HasPreviousPage: validPage > 1,
		CurrentRange:    currentRange(start, end),
		RemainingItems:  totalCount - end,
		RemainingPages:  remainingPages,
	}
	meta.PaginationSummary = summary(meta, start, end, noun)
	meta.NavigationGuide = navigation(meta, noun)

	return Page[T]{Items: data, Meta: meta}
}

func currentRange(start, end int) string {
	if end == 0 {
		return "0-0"
	}
	return fmt.Sprintf("%d-%d", start+1, end)
}

func summary(meta model.PaginationMeta, start, end int, noun string) string {
	if meta.TotalCount == 0 {
		return fmt.Sprintf("No %s found.", noun)
	}
	return fmt.Sprintf("Showing %s %d-%d of %d total %s (page %d of %d).",
		noun, start+1, end, meta.TotalCount, noun, meta.Page, meta.TotalPages)
}

func navigation(meta model.PaginationMeta, noun string) string {
	if meta.TotalCount == 0 {
		return fmt.Sprintf("There are no %s to page through.", noun)
	}
	if meta.TotalPages == 1 {
		return fmt.Sprintf("All %s are shown on this page.", noun)
	}
	var b strings.Builder
	if meta.HasNextPage {
		verb, pages := "are", "pages"
		if meta.RemainingPages == 1 {
			verb, pages = "is", "page"
		}
		items := noun
		if meta.RemainingItems == 1 {
			items = singular(noun)
		}
		fmt.Fprintf(&b, "There %s %d more %s available (%d more %s). To see more %s, request page %d.",
			verb, meta.RemainingPages, pages, meta.RemainingItems, items, noun, meta.Page+1)
	} else {
		fmt.Fprintf(&b, "This is the last page of %s.", noun)
	}
	if meta.HasPreviousPage {
		fmt.Fprintf(&b, " To go back, request page %d.", meta.Page-1)
	}
	return b.String()
}

func singular(noun string) string {
	return strings.TrimSuffix(noun, "s")
}
