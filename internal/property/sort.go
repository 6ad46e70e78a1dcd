package property

import (
	"fmt"
	"strings"
)

// SortKey is the combined sort parameter sent as sortBy.
type SortKey string

const (
	SortNewest    SortKey = "date_desc"
	SortOldest    SortKey = "date_asc"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
)

// DefaultSort is newest first.
const DefaultSort = SortNewest

// SortKeys lists the keys in the order the listing page offers them.
var SortKeys = []SortKey{SortNewest, SortOldest, SortPriceAsc, SortPriceDesc}

var sortAliases = map[string]SortKey{
	"newest":     SortNewest,
	"oldest":     SortOldest,
	"date_desc":  SortNewest,
	"date_asc":   SortOldest,
	"price_asc":  SortPriceAsc,
	"price_desc": SortPriceDesc,
	"price":      SortPriceAsc,
	"-price":     SortPriceDesc,
}

// Label returns the user-facing description.
func (k SortKey) Label() string {
	switch k {
	case SortNewest:
		return "Newest First"
	case SortOldest:
		return "Oldest First"
	case SortPriceAsc:
		return "Price: Low to High"
	case SortPriceDesc:
		return "Price: High to Low"
	}
	return string(k)
}

// ParseSortKey accepts a canonical key or an alias. Empty input yields
// DefaultSort.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultSort, nil
	}
	if k, ok := sortAliases[s]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort %q (valid: newest, oldest, price_asc, price_desc)", s)
}
