package domain

// Product is a catalog entry served by the CMS backend. The cart treats the
// ID as opaque and only copies title, price and image into line items.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"image_url,omitempty"`
	Category    string `json:"category,omitempty"`
	InStock     bool   `json:"in_stock"`
}
