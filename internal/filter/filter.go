// Package filter narrows an already fetched package list on the storefront
// side. It never mutates its input.
package filter

import (
	"strings"

	"github.com/Domenick1991/travelstore/internal/domain"
)

// DefaultMaxPrice is the price slider's upper end; a MaxPrice at or above it
// imposes no bound.
const DefaultMaxPrice = 10000

type Criteria struct {
	Search          string  `json:"search" form:"search"`
	MinPrice        float64 `json:"minPrice" form:"minPrice"`
	MaxPrice        float64 `json:"maxPrice" form:"maxPrice"`
	Category        string  `json:"category" form:"category"`
	MinAvailability int     `json:"availability" form:"availability"`
}

func Default() Criteria {
	return Criteria{MaxPrice: DefaultMaxPrice}
}

// IsDefault reports whether the criteria impose no predicate at all.
func (s Criteria) IsDefault() bool {
	return s.Search == "" && s.MinPrice <= 0 && s.MaxPrice >= DefaultMaxPrice &&
		s.Category == "" && s.MinAvailability <= 0
}

// Apply returns, in their original order, the packages that satisfy every
// non-default field of criteria. Search matches title or destination, ignoring
// case; price and availability bounds are inclusive.
func Apply(packages []domain.TravelPackage, criteria Criteria) []domain.TravelPackage {
	out := make([]domain.TravelPackage, 0, len(packages))
	search := strings.ToLower(criteria.Search)
	for _, p := range packages {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Destination), search) {
			continue
		}
		if criteria.MinPrice > 0 && p.Price < criteria.MinPrice {
			continue
		}
		if criteria.MaxPrice < DefaultMaxPrice && p.Price > criteria.MaxPrice {
			continue
		}
		if criteria.Category != "" && p.Category != criteria.Category {
			continue
		}
		if criteria.MinAvailability > 0 && p.Availability < criteria.MinAvailability {
			continue
		}
		out = append(out, p)
	}
	return out
}
