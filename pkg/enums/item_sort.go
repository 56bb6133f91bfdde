package enums

import "fmt"

// ItemSort orders catalog listings.
type ItemSort string

const (
	ItemSortDisplayOrder ItemSort = "display_order"
	ItemSortNewest       ItemSort = "newest"
	ItemSortPriceAsc     ItemSort = "price_asc"
	ItemSortPriceDesc    ItemSort = "price_desc"
)

var validItemSorts = []ItemSort{
	ItemSortDisplayOrder,
	ItemSortNewest,
	ItemSortPriceAsc,
	ItemSortPriceDesc,
}

// String implements fmt.Stringer.
func (s ItemSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemSort.
func (s ItemSort) IsValid() bool {
	for _, candidate := range validItemSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemSort converts raw input into an ItemSort; empty input selects the
// display order.
func ParseItemSort(value string) (ItemSort, error) {
	if value == "" {
		return ItemSortDisplayOrder, nil
	}
	for _, candidate := range validItemSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}
