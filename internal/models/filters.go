package models

import (
	"net/url"
	"strconv"
)

type MenuFilter struct {
	Category  MenuCategory
	Available *bool
	Search    string
}

func (f MenuFilter) Values() url.Values {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", string(f.Category))
	}
	if f.Available != nil {
		v.Set("available", strconv.FormatBool(*f.Available))
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	return v
}

// OrderFilter narrows an orders listing. Date is YYYY-MM-DD.
// KiosID is only used by the cross-kios aggregation.
type OrderFilter struct {
	Status OrderStatus
	Date   string
	KiosID uint
}

func (f OrderFilter) Values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.Date != "" {
		v.Set("date", f.Date)
	}
	return v
}
