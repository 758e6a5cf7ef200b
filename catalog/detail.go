package catalog

import (
	"errors"
	"sync"

	"github.com/MrEthical07/storefront/cart"
)

var (
	// ErrOutOfStock is returned by DetailView.LineItem for unavailable products.
	ErrOutOfStock = errors.New("catalog: product out of stock")
	// ErrUnknownSize is returned by SelectSize for a size the product does not offer.
	ErrUnknownSize = errors.New("catalog: unknown size")
)

// DetailView is the state of a product detail page: gallery position, chosen
// quantity and size. Safe for concurrent use.
type DetailView struct {
	mu       sync.Mutex
	product  Product
	image    int
	quantity int
	size     string
}

// NewDetailView starts at the first image with quantity 1.
func NewDetailView(p Product) *DetailView {
	return &DetailView{product: p, quantity: 1}
}

// Product returns the displayed product.
func (v *DetailView) Product() Product {
	return v.product
}

// Image returns the selected image index and reference ("" without images).
func (v *DetailView) Image() (int, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.product.Images) == 0 {
		return 0, ""
	}
	return v.image, v.product.Images[v.image]
}

// NextImage advances the gallery, wrapping to the first image.
func (v *DetailView) NextImage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n := len(v.product.Images); n > 0 {
		v.image = (v.image + 1) % n
	}
}

// PrevImage moves back, wrapping to the last image.
func (v *DetailView) PrevImage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n := len(v.product.Images); n > 0 {
		v.image = (v.image - 1 + n) % n
	}
}

// SelectImage jumps to index i; out-of-range values are ignored.
func (v *DetailView) SelectImage(i int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i >= 0 && i < len(v.product.Images) {
		v.image = i
	}
}

// Quantity returns the chosen quantity (always >= 1).
func (v *DetailView) Quantity() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.quantity
}

func (v *DetailView) Increment() {
	v.mu.Lock()
	v.quantity++
	v.mu.Unlock()
}

// Decrement never goes below 1.
func (v *DetailView) Decrement() {
	v.mu.Lock()
	if v.quantity > 1 {
		v.quantity--
	}
	v.mu.Unlock()
}

// SetQuantity clamps n to at least 1.
func (v *DetailView) SetQuantity(n int) {
	if n < 1 {
		n = 1
	}
	v.mu.Lock()
	v.quantity = n
	v.mu.Unlock()
}

// SelectSize picks a size. Products without a size list accept any value.
func (v *DetailView) SelectSize(size string) error {
	if len(v.product.Sizes) > 0 && size != "" {
		found := false
		for _, s := range v.product.Sizes {
			if s == size {
				found = true
				break
			}
		}
		if !found {
			return ErrUnknownSize
		}
	}
	v.mu.Lock()
	v.size = size
	v.mu.Unlock()
	return nil
}

// Size returns the selected size.
func (v *DetailView) Size() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// LineItem builds the cart entry for the current selection. The first image is
// the cart thumbnail regardless of gallery position.
func (v *DetailView) LineItem() (cart.LineItem, error) {
	if !v.product.InStock {
		return cart.LineItem{}, ErrOutOfStock
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	li := cart.LineItem{
		ProductID: v.product.ID,
		Name:      v.product.Name,
		UnitPrice: v.product.Price,
		Quantity:  v.quantity,
		Variant:   v.size,
	}
	if len(v.product.Images) > 0 {
		li.ImageRef = v.product.Images[0]
	}
	return li, nil
}
