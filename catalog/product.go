// Package catalog fetches products from the remote API and holds the view-state
// of a product detail page.
package catalog

// Product is a catalog entry. Prices are in minor currency units.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Price          int64             `json:"price"`
	OriginalPrice  int64             `json:"originalPrice,omitempty"`
	Images         []string          `json:"images"`
	Sizes          []string          `json:"sizes,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Rating         float64           `json:"rating,omitempty"`
	ReviewCount    int               `json:"reviewCount,omitempty"`
	StockQuantity  int               `json:"stockQuantity,omitempty"`
	InStock        bool              `json:"inStock"`
}

// DiscountPercent is the rounded markdown from OriginalPrice, or 0.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice <= p.Price || p.OriginalPrice <= 0 {
		return 0
	}
	return int((200*(p.OriginalPrice-p.Price) + p.OriginalPrice) / (2 * p.OriginalPrice))
}

// HasTag reports whether the product carries tag.
func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
