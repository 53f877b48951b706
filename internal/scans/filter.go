package scans

import (
	"strings"

	"github.com/samber/lo"

	"github.com/vamp-agent/vamp/internal/connectors"
)

// ApplyFilters keeps items matching any include term, then drops items
// matching any exclude term. Exclude runs after include, so a term present
// in both lists results in the item being dropped. Matching is a
// case-insensitive substring test against title or description.
func ApplyFilters(items []connectors.Item, include, exclude []string) []connectors.Item {
	if len(include) > 0 {
		items = lo.Filter(items, func(item connectors.Item, _ int) bool {
			return matchesAny(item, include)
		})
	}
	if len(exclude) > 0 {
		items = lo.Filter(items, func(item connectors.Item, _ int) bool {
			return !matchesAny(item, exclude)
		})
	}
	return items
}

func matchesAny(item connectors.Item, terms []string) bool {
	title := strings.ToLower(item.Title)
	description := strings.ToLower(item.Description)

	return lo.SomeBy(terms, func(term string) bool {
		term = strings.ToLower(term)
		return strings.Contains(title, term) || strings.Contains(description, term)
	})
}
