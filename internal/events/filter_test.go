package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/pkg/listing"
)

func sampleEvents() []Event {
	base := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
	return []Event{
		{Title: "Jazz Night", Description: "Smooth evening jazz", Venue: "Blue Room", CategorySlug: "music", Date: base, Price: 30, Capacity: 100, AvailableSeats: 50},
		{Title: "Tech Summit", Description: "Cloud and backend talks", Venue: "Hall A", CategorySlug: "technology", Date: base.AddDate(0, 0, 5), Price: 150, Capacity: 200, AvailableSeats: 5},
		{Title: "Open Mic", Description: "Free community music night", Venue: "The Cellar", CategorySlug: "music", Date: base.AddDate(0, 0, 10), Price: 0, Capacity: 80, AvailableSeats: 80},
		{Title: "Marathon", Description: "City marathon", Venue: "Downtown", CategorySlug: "sports", Date: base.AddDate(0, 1, 0), Price: 20, Capacity: 500, AvailableSeats: 0},
	}
}

func filterAll(items []Event, query EventListQuery) []Event {
	return listing.Filter(items, Predicates(query))
}

func titles(items []Event) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.Title
	}
	return out
}

func TestPredicatesSearch(t *testing.T) {
	items := sampleEvents()

	got := filterAll(items, EventListQuery{Search: "music"})
	assert.ElementsMatch(t, []string{"Open Mic"}, titles(got))

	// Case-insensitive, matches title, description and venue
	got = filterAll(items, EventListQuery{Search: "JAZZ"})
	assert.ElementsMatch(t, []string{"Jazz Night"}, titles(got))

	got = filterAll(items, EventListQuery{Search: "hall"})
	assert.ElementsMatch(t, []string{"Tech Summit"}, titles(got))

	got = filterAll(items, EventListQuery{Search: "nothing matches this"})
	assert.Empty(t, got)
}

func TestPredicatesCategory(t *testing.T) {
	got := filterAll(sampleEvents(), EventListQuery{Category: "music"})
	assert.ElementsMatch(t, []string{"Jazz Night", "Open Mic"}, titles(got))
}

func TestPredicatesStatus(t *testing.T) {
	items := sampleEvents()

	assert.ElementsMatch(t, []string{"Jazz Night"}, titles(filterAll(items, EventListQuery{Status: "available"})))
	assert.ElementsMatch(t, []string{"Tech Summit"}, titles(filterAll(items, EventListQuery{Status: "few-tickets"})))
	assert.ElementsMatch(t, []string{"Open Mic"}, titles(filterAll(items, EventListQuery{Status: "free"})))
	assert.ElementsMatch(t, []string{"Marathon"}, titles(filterAll(items, EventListQuery{Status: "sold-out"})))
}

func TestPredicatesPriceRange(t *testing.T) {
	items := sampleEvents()

	got := filterAll(items, EventListQuery{PriceMin: 25, PriceMax: 160})
	assert.ElementsMatch(t, []string{"Jazz Night", "Tech Summit"}, titles(got))

	got = filterAll(items, EventListQuery{PriceMax: 25})
	// Free events pass a max-price filter
	assert.ElementsMatch(t, []string{"Open Mic", "Marathon"}, titles(got))
}

func TestPredicatesDateWindow(t *testing.T) {
	items := sampleEvents()

	got := filterAll(items, EventListQuery{Date: "2026-09-01"})
	assert.ElementsMatch(t, []string{"Jazz Night"}, titles(got))

	got = filterAll(items, EventListQuery{DateFrom: "2026-09-02", DateTo: "2026-09-30"})
	assert.ElementsMatch(t, []string{"Tech Summit", "Open Mic"}, titles(got))

	// DateTo is inclusive of the whole day
	got = filterAll(items, EventListQuery{DateTo: "2026-09-01"})
	assert.ElementsMatch(t, []string{"Jazz Night"}, titles(got))
}

func TestPredicatesAreConjunctive(t *testing.T) {
	got := filterAll(sampleEvents(), EventListQuery{Category: "music", Status: "free"})
	assert.ElementsMatch(t, []string{"Open Mic"}, titles(got))
}

func TestPredicatesEmptyQueryMatchesAll(t *testing.T) {
	items := sampleEvents()
	assert.Len(t, filterAll(items, EventListQuery{}), len(items))
}

func TestComparatorSorting(t *testing.T) {
	items := sampleEvents()

	page := listing.Apply(items, nil, Comparator(EventListQuery{Sort: "price", Order: "asc"}), listing.Params{PageSize: 10})
	require.Len(t, page.Items, 4)
	assert.Equal(t, []string{"Open Mic", "Marathon", "Jazz Night", "Tech Summit"}, titles(page.Items))

	page = listing.Apply(items, nil, Comparator(EventListQuery{Sort: "price", Order: "desc"}), listing.Params{PageSize: 10})
	assert.Equal(t, []string{"Tech Summit", "Jazz Night", "Marathon", "Open Mic"}, titles(page.Items))

	page = listing.Apply(items, nil, Comparator(EventListQuery{Sort: "title"}), listing.Params{PageSize: 10})
	assert.Equal(t, []string{"Jazz Night", "Marathon", "Open Mic", "Tech Summit"}, titles(page.Items))

	// Default sort is event date ascending
	page = listing.Apply(items, nil, Comparator(EventListQuery{}), listing.Params{PageSize: 10})
	assert.Equal(t, []string{"Jazz Night", "Tech Summit", "Open Mic", "Marathon"}, titles(page.Items))
}
