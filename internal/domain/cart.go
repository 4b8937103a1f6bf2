package domain

import "time"

// Cart is the set of line items a shopper intends to purchase.
type Cart struct {
	ID        string     `json:"id"`
	ShopperID string     `json:"shopper_id"`
	Items     []CartItem `json:"items"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one product-and-quantity pairing within a cart. UnitPrice is in
// minor currency units (cents).
type CartItem struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// NewCart creates an empty cart for the given shopper.
func NewCart(id, shopperID, currency string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        id,
		ShopperID: shopperID,
		Items:     []CartItem{},
		Currency:  currency,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TotalAmount is the sum of unit price times quantity over all line items,
// in minor currency units. It is always recomputed, never stored.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// ItemCount returns the total quantity across all line items.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the line item for the given product, or
// -1 when the product is not in the cart.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
