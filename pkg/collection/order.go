package collection

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
)

// SortKey selects the comparator used to reorder a collection. Field names
// are parsed into a SortKey once, before any comparison runs.
type SortKey uint8

const (
	// SortDefault orders pages by title and posts by date.
	SortDefault SortKey = iota
	SortTitle
	SortURL
	SortLayout
	SortYear
	SortMonth
	SortDate
)

var sortKeyNames = [...]string{
	SortDefault: "default",
	SortTitle:   "title",
	SortURL:     "url",
	SortLayout:  "layout",
	SortYear:    "year",
	SortMonth:   "month",
	SortDate:    "date",
}

func (k SortKey) String() string {
	if int(k) < len(sortKeyNames) {
		return sortKeyNames[k]
	}
	return "invalid"
}

// ParsePageSortKey maps a field name to a page comparator. Pages can be
// ordered by title and url; any other name returns SortDefault and false.
func ParsePageSortKey(field string) (SortKey, bool) {
	switch field {
	case "title":
		return SortTitle, true
	case "url":
		return SortURL, true
	}
	return SortDefault, false
}

// ParsePostSortKey maps a field name to a post comparator. "day" and "date"
// both select the composite date comparator.
func ParsePostSortKey(field string) (SortKey, bool) {
	switch field {
	case "title":
		return SortTitle, true
	case "url":
		return SortURL, true
	case "layout":
		return SortLayout, true
	case "year":
		return SortYear, true
	case "month":
		return SortMonth, true
	case "day", "date":
		return SortDate, true
	}
	return SortDefault, false
}

// ComparePages compares two pages under key.
func ComparePages(key SortKey, a, b Page) int {
	switch key {
	case SortURL:
		return strings.Compare(a.RelativeURL, b.RelativeURL)
	default:
		return strings.Compare(a.Title, b.Title)
	}
}

// ComparePosts compares two posts under key. Dates compare year, then month,
// then day, each as an integer.
func ComparePosts(key SortKey, a, b Post) int {
	switch key {
	case SortTitle:
		return strings.Compare(a.Title, b.Title)
	case SortURL:
		return strings.Compare(a.RelativeURL, b.RelativeURL)
	case SortLayout:
		return strings.Compare(a.Layout, b.Layout)
	case SortYear:
		return cmp.Compare(a.yearInt, b.yearInt)
	case SortMonth:
		return cmp.Compare(a.monthInt, b.monthInt)
	default:
		if c := cmp.Compare(a.yearInt, b.yearInt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.monthInt, b.monthInt); c != 0 {
			return c
		}
		return cmp.Compare(a.dayInt, b.dayInt)
	}
}

// OrderPages reorders pages in place. Ties keep their previous order.
func OrderPages(pages []Page, key SortKey, ascending bool) {
	slices.SortStableFunc(pages, func(a, b Page) int {
		if ascending {
			return ComparePages(key, a, b)
		}
		return ComparePages(key, b, a)
	})
}

// OrderPosts reorders posts in place. Ties keep their previous order.
func OrderPosts(posts []Post, key SortKey, ascending bool) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		if ascending {
			return ComparePosts(key, a, b)
		}
		return ComparePosts(key, b, a)
	})
}

// OrderPagesBy parses field and reorders pages. An unknown field logs a
// warning and falls back to title order.
func OrderPagesBy(logger *slog.Logger, pages []Page, field string, ascending bool) SortKey {
	key, ok := ParsePageSortKey(field)
	if !ok && logger != nil {
		logger.Warn("Unknown page sort field, using default order", "field", field, "fallback", "title")
	}
	OrderPages(pages, key, ascending)
	return key
}

// OrderPostsBy parses field and reorders posts. An unknown field logs a
// warning and falls back to date order.
func OrderPostsBy(logger *slog.Logger, posts []Post, field string, ascending bool) SortKey {
	key, ok := ParsePostSortKey(field)
	if !ok && logger != nil {
		logger.Warn("Unknown post sort field, using default order", "field", field, "fallback", "date")
	}
	OrderPosts(posts, key, ascending)
	return key
}
