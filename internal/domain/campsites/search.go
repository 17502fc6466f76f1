package campsites

import (
	"sort"
	"strings"
)

type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortRating    SortOrder = "rating_desc"

	defaultListLimit = 24
	maxListLimit     = 60
)

// ListParams filter and page the campsite catalog.
type ListParams struct {
	Query      string
	Category   Category
	City       string
	State      string
	MinGuests  int
	PetsOnly   bool
	OnlyActive bool
	Sort       SortOrder
	Limit      int
	Offset     int
}

type ListResult struct {
	Items []*Campsite
	Total int
}

func (p ListParams) Normalized() ListParams {
	n := p
	n.Query = strings.ToLower(strings.TrimSpace(n.Query))
	n.City = strings.ToLower(strings.TrimSpace(n.City))
	n.State = strings.ToLower(strings.TrimSpace(n.State))
	n.Category = Category(strings.ToLower(strings.TrimSpace(string(n.Category))))
	if n.MinGuests < 0 {
		n.MinGuests = 0
	}
	if n.Limit <= 0 {
		n.Limit = defaultListLimit
	}
	if n.Limit > maxListLimit {
		n.Limit = maxListLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	switch n.Sort {
	case SortPriceAsc, SortPriceDesc, SortRating:
	default:
		n.Sort = SortFeatured
	}
	return n
}

// Matches expects normalized params.
func (p ListParams) Matches(c *Campsite) bool {
	if p.OnlyActive && c.State != StateActive {
		return false
	}
	if p.Category != "" && c.Category != p.Category {
		return false
	}
	if p.City != "" && strings.ToLower(c.Location.City) != p.City {
		return false
	}
	if p.State != "" && strings.ToLower(c.Location.State) != p.State {
		return false
	}
	if p.MinGuests > 0 && c.MaxGuests < p.MinGuests {
		return false
	}
	if p.PetsOnly && !c.PetsAllowed {
		return false
	}
	if p.Query != "" {
		haystack := strings.ToLower(c.Name + " " + c.Description + " " + c.Location.City)
		if !strings.Contains(haystack, p.Query) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and pages an in-memory catalog.
func Apply(all []*Campsite, params ListParams) ListResult {
	p := params.Normalized()
	matched := make([]*Campsite, 0, len(all))
	for _, c := range all {
		if p.Matches(c) {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch p.Sort {
		case SortPriceAsc:
			return a.Pricing.PricePerNight.Amount < b.Pricing.PricePerNight.Amount
		case SortPriceDesc:
			return a.Pricing.PricePerNight.Amount > b.Pricing.PricePerNight.Amount
		case SortRating:
			return a.Rating > b.Rating
		default:
			if a.Featured != b.Featured {
				return a.Featured
			}
			return a.Name < b.Name
		}
	})
	total := len(matched)
	if p.Offset >= total {
		return ListResult{Items: []*Campsite{}, Total: total}
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	return ListResult{Items: matched[p.Offset:end], Total: total}
}
