// Package listing implements pure in-memory collection queries: conjunctive
// filtering, stable sorting and 1-indexed pagination. It has no side effects
// and never returns an error; out-of-range pages yield an empty page.
package listing

import (
	"math"
	"sort"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Predicate reports whether an item matches one active filter.
type Predicate[T any] func(item T) bool

// Less orders two items. A nil Less leaves the collection order untouched.
type Less[T any] func(a, b T) bool

// Params describes one page request.
type Params struct {
	Page     int // 1-indexed; values < 1 become 1
	PageSize int // values < 1 become DefaultPageSize, capped at MaxPageSize
}

// Page is the result of a query: the requested slice of the filtered,
// sorted collection plus its totals.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func (p Params) normalized() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Apply filters items with every predicate (conjunctive), sorts the filtered
// set stably with less, and returns the page described by params. The input
// slice is never mutated.
func Apply[T any](items []T, predicates []Predicate[T], less Less[T], params Params) Page[T] {
	filtered := Filter(items, predicates)

	if less != nil {
		sort.SliceStable(filtered, func(i, j int) bool {
			return less(filtered[i], filtered[j])
		})
	}

	return Paginate(filtered, params)
}

// Filter returns the items matching every predicate. The result is a fresh
// slice; the input is left untouched so callers can sort the output freely.
func Filter[T any](items []T, predicates []Predicate[T]) []T {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if matchesAll(item, predicates) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func matchesAll[T any](item T, predicates []Predicate[T]) bool {
	for _, match := range predicates {
		if match != nil && !match(item) {
			return false
		}
	}
	return true
}

// Paginate slices items for the requested page. Pages past the end return an
// empty page with the totals intact; an empty collection has zero total pages.
func Paginate[T any](items []T, params Params) Page[T] {
	params = params.normalized()

	total := len(items)
	totalPages := int(math.Ceil(float64(total) / float64(params.PageSize)))

	// Computing start directly would overflow for absurd page numbers;
	// any page past the last one is empty regardless.
	start := total
	if params.Page <= totalPages {
		start = (params.Page - 1) * params.PageSize
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		TotalCount: int64(total),
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}
}

// Descending inverts an ordering.
func Descending[T any](less Less[T]) Less[T] {
	if less == nil {
		return nil
	}
	return func(a, b T) bool { return less(b, a) }
}

// ContainsFold reports whether any of the fields contains the query term,
// case-insensitively. An empty term matches everything.
func ContainsFold(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
