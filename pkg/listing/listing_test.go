package listing

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string
	Price float64
}

func sampleItems(n int) []item {
	items := make([]item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, item{
			Name:  fmt.Sprintf("event-%02d", i),
			Price: float64(i * 10),
		})
	}
	return items
}

func TestPaginateFirstPage(t *testing.T) {
	items := sampleItems(12)

	page := Paginate(items, Params{Page: 1, PageSize: 5})

	require.Len(t, page.Items, 5)
	assert.Equal(t, items[0], page.Items[0])
	assert.Equal(t, items[4], page.Items[4])
	assert.Equal(t, int64(12), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
}

func TestPaginateLastPartialPage(t *testing.T) {
	page := Paginate(sampleItems(12), Params{Page: 3, PageSize: 5})

	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.TotalPages)
}

func TestPaginatePastTheEndReturnsEmptyPage(t *testing.T) {
	page := Paginate(sampleItems(12), Params{Page: 8, PageSize: 5}) // totalPages+5

	assert.Empty(t, page.Items)
	assert.Equal(t, int64(12), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
}

func TestPaginateHugePageNumberReturnsEmptyPage(t *testing.T) {
	// (page-1)*size must not overflow into a negative slice index.
	page := Paginate(sampleItems(12), Params{Page: math.MaxInt, PageSize: 100})

	assert.Empty(t, page.Items)
	assert.Equal(t, int64(12), page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPaginateEmptyCollection(t *testing.T) {
	page := Paginate([]item{}, Params{Page: 1, PageSize: 5})

	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.TotalCount)
	assert.Equal(t, 0, page.TotalPages)
}

func TestPaginateDefaults(t *testing.T) {
	page := Paginate(sampleItems(25), Params{})

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Items, DefaultPageSize)
}

func TestPaginateNeverExceedsPageSize(t *testing.T) {
	items := sampleItems(37)
	for page := 1; page <= 5; page++ {
		result := Paginate(items, Params{Page: page, PageSize: 10})
		assert.LessOrEqual(t, len(result.Items), 10, "page %d", page)
	}
}

func TestFilterSoundness(t *testing.T) {
	items := sampleItems(20)
	free := func(it item) bool { return it.Price == 0 }
	cheap := func(it item) bool { return it.Price < 50 }

	filtered := Filter(items, []Predicate[item]{cheap})
	for _, it := range filtered {
		assert.True(t, cheap(it))
	}
	assert.Len(t, filtered, 5)

	// Conjunctive: both predicates must hold.
	both := Filter(items, []Predicate[item]{cheap, free})
	require.Len(t, both, 1)
	assert.Equal(t, "event-00", both[0].Name)
}

func TestFilterCompleteness(t *testing.T) {
	items := sampleItems(20)
	cheap := func(it item) bool { return it.Price < 50 }

	filtered := Filter(items, []Predicate[item]{cheap})

	matching := 0
	for _, it := range items {
		if cheap(it) {
			matching++
		}
	}
	assert.Equal(t, matching, len(filtered), "no matching item may be dropped")
}

func TestFilterNilPredicateMatchesAll(t *testing.T) {
	items := sampleItems(4)
	assert.Len(t, Filter(items, []Predicate[item]{nil}), 4)
	assert.Len(t, Filter(items, nil), 4)
}

func TestApplySortAscendingThenDescendingReverses(t *testing.T) {
	items := []item{
		{Name: "c", Price: 30},
		{Name: "a", Price: 10},
		{Name: "d", Price: 40},
		{Name: "b", Price: 20},
	}
	byPrice := func(a, b item) bool { return a.Price < b.Price }

	asc := Apply(items, nil, byPrice, Params{Page: 1, PageSize: 10})
	desc := Apply(items, nil, Descending(byPrice), Params{Page: 1, PageSize: 10})

	require.Len(t, asc.Items, 4)
	for i := range asc.Items {
		assert.Equal(t, asc.Items[i], desc.Items[len(desc.Items)-1-i])
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	items := []item{{Name: "b", Price: 2}, {Name: "a", Price: 1}}
	Apply(items, nil, func(a, b item) bool { return a.Price < b.Price }, Params{})

	assert.Equal(t, "b", items[0].Name)
}

func TestApplySortsBeforePaginating(t *testing.T) {
	items := []item{
		{Name: "d", Price: 40},
		{Name: "a", Price: 10},
		{Name: "c", Price: 30},
		{Name: "b", Price: 20},
	}
	byPrice := func(a, b item) bool { return a.Price < b.Price }

	page2 := Apply(items, nil, byPrice, Params{Page: 2, PageSize: 2})

	require.Len(t, page2.Items, 2)
	assert.Equal(t, "c", page2.Items[0].Name)
	assert.Equal(t, "d", page2.Items[1].Name)
}

func TestApplyIdempotent(t *testing.T) {
	items := sampleItems(15)
	cheap := func(it item) bool { return it.Price < 100 }
	byName := func(a, b item) bool { return a.Name < b.Name }
	params := Params{Page: 2, PageSize: 4}

	first := Apply(items, []Predicate[item]{cheap}, byName, params)
	second := Apply(items, []Predicate[item]{cheap}, byName, params)

	assert.Equal(t, first, second)
}

func TestContainsFold(t *testing.T) {
	tests := []struct {
		term   string
		fields []string
		want   bool
	}{
		{"", []string{"anything"}, true},
		{"  ", []string{"anything"}, true},
		{"JAZZ", []string{"Winter Jazz Night", ""}, true},
		{"jazz", []string{"Rock Concert", "an evening of jazz classics"}, true},
		{"opera", []string{"Rock Concert", "City Arena"}, false},
		{"aren", []string{"", "City Arena"}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsFold(tt.term, tt.fields...), "term %q", tt.term)
	}
}
