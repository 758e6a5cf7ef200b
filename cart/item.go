package cart

// LineItem is one cart entry. UnitPrice is in minor currency units.
type LineItem struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image,omitempty"`
	Variant   string `json:"size,omitempty"`
}

// Total is UnitPrice × Quantity.
func (li LineItem) Total() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

type itemKey struct {
	productID string
	variant   string
}

func (li LineItem) key() itemKey {
	return itemKey{productID: li.ProductID, variant: li.Variant}
}

func normalize(li LineItem) LineItem {
	if li.Quantity < 1 {
		li.Quantity = 1
	}
	if li.UnitPrice < 0 {
		li.UnitPrice = 0
	}
	return li
}

// Snapshot is a consistent copy of the cart with derived totals.
type Snapshot struct {
	Items     []LineItem `json:"items"`
	ItemCount int        `json:"item_count"`
	Lines     int        `json:"lines"`
	Subtotal  int64      `json:"subtotal"`
}

func snapshotOf(items []LineItem) Snapshot {
	out := Snapshot{Items: make([]LineItem, len(items)), Lines: len(items)}
	copy(out.Items, items)
	for _, li := range items {
		out.ItemCount += li.Quantity
		out.Subtotal += li.Total()
	}
	return out
}
