package domain

import "time"

// BusinessModel is the listing's transaction type.
type BusinessModel string

const (
	BusinessSale   BusinessModel = "SALE"
	BusinessRental BusinessModel = "RENTAL"
)

// AreaType names which physical measurement an area value represents.
type AreaType string

const (
	AreaTotal   AreaType = "TOTAL"
	AreaUsable  AreaType = "USABLE"
	AreaBuilt   AreaType = "BUILT"
	AreaLand    AreaType = "LAND"
	AreaPrivate AreaType = "PRIVATE"
)

// ParseAreaType accepts the three area types a caller may request.
func ParseAreaType(s string) (AreaType, bool) {
	switch AreaType(s) {
	case AreaTotal, AreaUsable, AreaBuilt:
		return AreaType(s), true
	case "":
		return AreaTotal, true
	}
	return "", false
}

// Money is a monetary amount as the search API sends it.
type Money struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency,omitempty"`
}

// Price is one price entry of a listing.
type Price struct {
	BusinessModel BusinessModel `json:"businessModel"`
	Total         Money         `json:"total"`
	Condominium   *Money        `json:"condominium,omitempty"`
	Tax           *Money        `json:"tax,omitempty"`
}

// Area is one area measurement of a listing.
type Area struct {
	AreaType AreaType `json:"areaType"`
	Value    float64  `json:"value"`
}

// Address is the listing's postal address.
type Address struct {
	Street       string    `json:"street,omitempty"`
	Number       string    `json:"number,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	ZipCode      string    `json:"zipCode,omitempty"`
	Location     *GeoPoint `json:"location,omitempty"`
}

// PropertyRecord is a search result, kept verbatim from the search API.
type PropertyRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	UnitType      string    `json:"unitType,omitempty"`
	Prices        []Price   `json:"prices"`
	Areas         []Area    `json:"area"`
	Address       Address   `json:"address"`
	Bedrooms      int       `json:"bedrooms,omitempty"`
	Bathrooms     int       `json:"bathrooms,omitempty"`
	Suites        int       `json:"suites,omitempty"`
	ParkingSpaces int       `json:"parkingSpaces,omitempty"`
	Images        []string  `json:"images,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Records []PropertyRecord `json:"records"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}
