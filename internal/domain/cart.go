package domain

import "time"

type Cart struct {
	ID          string     `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID      string     `bson:"user_id" json:"userId"`
	Items       []CartItem `bson:"items" json:"items"`
	TotalAmount float64    `bson:"total_amount" json:"totalAmount"`
	ItemCount   int        `bson:"item_count" json:"itemCount"`
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ListingID  string    `bson:"listing_id" json:"listingId"`
	Quantity   int       `bson:"quantity" json:"quantity"`
	UnitPrice  float64   `bson:"unit_price" json:"unitPrice"`
	TotalPrice float64   `bson:"total_price" json:"totalPrice"`
	AddedAt    time.Time `bson:"added_at" json:"addedAt"`
}

// Recalculate rebuilds every derived field from the item lines.
// TotalAmount and ItemCount are never written independently of the items,
// so a stale stored value heals on the next read or mutation.
func (c *Cart) Recalculate() {
	total := 0.0
	count := 0
	for i := range c.Items {
		c.Items[i].TotalPrice = float64(c.Items[i].Quantity) * c.Items[i].UnitPrice
		total += c.Items[i].TotalPrice
		count += c.Items[i].Quantity
	}
	c.TotalAmount = total
	c.ItemCount = count
}

// FindItem returns the index of the item for listingID, or -1.
func (c *Cart) FindItem(listingID string) int {
	for i := range c.Items {
		if c.Items[i].ListingID == listingID {
			return i
		}
	}
	return -1
}
