package models

// SortKey orders catalog results. A leading '-' means descending.
type SortKey string

const (
	SortNameAsc   SortKey = "name"
	SortNameDesc  SortKey = "-name"
	SortPriceAsc  SortKey = "price"
	SortPriceDesc SortKey = "-price"
)

// SortChoices lists the keys with their labels, in display order.
var SortChoices = []struct {
	Key   SortKey
	Label string
}{
	{SortNameAsc, "Name, A-Z"},
	{SortNameDesc, "Name, Z-A"},
	{SortPriceAsc, "Price, low first"},
	{SortPriceDesc, "Price, high first"},
}

func (k SortKey) Valid() bool {
	switch k {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// Column returns the product column and direction for the key.
func (k SortKey) Column() (column string, desc bool) {
	switch k {
	case SortNameDesc:
		return "name", true
	case SortPriceAsc:
		return "price", false
	case SortPriceDesc:
		return "price", true
	default:
		return "name", false
	}
}
