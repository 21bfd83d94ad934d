package events

import (
	"time"

	"eventhub/pkg/listing"
)

// Predicates translates an EventListQuery into listing predicates.
// Each set filter contributes one predicate; the list is conjunctive.
func Predicates(query EventListQuery) []listing.Predicate[Event] {
	var preds []listing.Predicate[Event]

	if query.Search != "" {
		term := query.Search
		preds = append(preds, func(e Event) bool {
			return listing.ContainsFold(term, e.Title, e.Description, e.Venue)
		})
	}

	if query.Category != "" {
		slug := query.Category
		preds = append(preds, func(e Event) bool {
			return e.CategorySlug == slug
		})
	}

	if query.Status != "" {
		want := Availability(query.Status)
		preds = append(preds, func(e Event) bool {
			return e.Availability() == want
		})
	}

	if query.PriceMin > 0 {
		min := query.PriceMin
		preds = append(preds, func(e Event) bool {
			return e.Price >= min
		})
	}
	if query.PriceMax > 0 {
		max := query.PriceMax
		preds = append(preds, func(e Event) bool {
			return e.Price <= max
		})
	}

	if day, err := parseDay(query.Date); err == nil && query.Date != "" {
		preds = append(preds, func(e Event) bool {
			return sameDay(e.Date, day)
		})
	}
	if from, err := parseDay(query.DateFrom); err == nil && query.DateFrom != "" {
		preds = append(preds, func(e Event) bool {
			return !e.Date.Before(from)
		})
	}
	if to, err := parseDay(query.DateTo); err == nil && query.DateTo != "" {
		end := to.Add(24 * time.Hour)
		preds = append(preds, func(e Event) bool {
			return e.Date.Before(end)
		})
	}

	return preds
}

// Comparator maps the sort/order query fields onto a listing.Less.
// Unknown sort keys fall back to date ascending.
func Comparator(query EventListQuery) listing.Less[Event] {
	var less listing.Less[Event]
	switch query.Sort {
	case "price":
		less = func(a, b Event) bool { return a.Price < b.Price }
	case "title":
		less = func(a, b Event) bool { return a.Title < b.Title }
	default:
		less = func(a, b Event) bool { return a.Date.Before(b.Date) }
	}
	if query.Order == "desc" {
		return listing.Descending(less)
	}
	return less
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
