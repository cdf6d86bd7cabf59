package domain

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
	ListingStatusSold     ListingStatus = "sold"
)

// Listing is the read-side view of a catalog listing. The catalog itself
// lives outside this service; we only ever read listings to validate cart
// and checkout operations.
type Listing struct {
	ID           string        `json:"id"`
	SellerID     string        `json:"sellerId"`
	Title        string        `json:"title"`
	Price        float64       `json:"price"`
	MinimumOrder int           `json:"minimumOrder"`
	Status       ListingStatus `json:"status"`
}

func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}
