package feed

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lysyi3m/newsletter-digest/app/email"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks items rejected by the filters. Items are returned in order, never dropped.
func (f *Filterer) Run(items []Item, filters []ConfigFilter) []Item {
	if len(filters) == 0 {
		return items
	}

	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		item.IsFiltered, item.FilterReason = f.applyFilters(item, filters)
		filtered = append(filtered, item)
	}

	return filtered
}

// applyFilters reports whether an item is rejected. Excludes are checked before
// includes within each filter, and the first rejecting filter names the reason.
func (f *Filterer) applyFilters(item Item, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

// getFieldValue maps a filter field to item text. "content" is the body the
// newsletter will carry with markup stripped, "snippet" is the feed summary
// alone, and "authors" joins the creator with any listed authors.
func (f *Filterer) getFieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "content":
		return email.HTMLToText(item.Body())
	case "snippet":
		return item.Snippet
	case "authors":
		authors := item.Authors
		if item.Creator != "" && !slices.Contains(authors, item.Creator) {
			authors = append([]string{item.Creator}, authors...)
		}
		return strings.Join(authors, " ")
	case "link":
		return item.Link
	case "categories":
		return strings.Join(item.Categories, " ")
	default:
		return ""
	}
}
