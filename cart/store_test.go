package cart

import (
	"math/rand/v2"
	"sync"
	"testing"
)

func ring(qty int) LineItem {
	return LineItem{ProductID: "p1", Name: "Ring", UnitPrice: 1000, Quantity: qty, ImageRef: "r.jpg", Variant: "7"}
}

func TestAddMergesSameKey(t *testing.T) {
	s := NewStore()
	s.AddToCart(ring(2))
	s.AddToCart(ring(3))

	snap := s.Snapshot()
	if snap.Lines != 1 || snap.Items[0].Quantity != 5 {
		t.Fatalf("expected one line with qty 5, got %+v", snap)
	}
	if snap.ItemCount != 5 || snap.Subtotal != 5000 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
}

func TestAddDistinctVariantIsSeparateLine(t *testing.T) {
	s := NewStore()
	s.AddToCart(ring(1))
	other := ring(1)
	other.Variant = "8"
	s.AddToCart(other)

	if snap := s.Snapshot(); snap.Lines != 2 {
		t.Fatalf("expected two lines, got %d", snap.Lines)
	}
}

func TestAddClampsQuantityAndPrice(t *testing.T) {
	s := NewStore()
	s.AddToCart(ring(0))
	s.AddToCart(LineItem{ProductID: "p2", UnitPrice: -5, Quantity: -3})

	snap := s.Snapshot()
	if snap.Items[0].Quantity != 1 || snap.Items[1].Quantity != 1 {
		t.Fatalf("expected clamped quantities, got %+v", snap.Items)
	}
	if snap.Items[1].UnitPrice != 0 {
		t.Fatalf("expected clamped price, got %d", snap.Items[1].UnitPrice)
	}
}

func TestUpdateQuantity(t *testing.T) {
	s := NewStore()
	s.AddToCart(ring(1))
	s.UpdateQuantity("p1", "7", 4)
	if q := s.Snapshot().Items[0].Quantity; q != 4 {
		t.Fatalf("expected 4, got %d", q)
	}

	s.UpdateQuantity("missing", "", 3)
	if s.Snapshot().Lines != 1 {
		t.Fatal("update of absent line must be a no-op")
	}

	s.UpdateQuantity("p1", "7", 0)
	if s.Snapshot().Lines != 0 {
		t.Fatal("update to 0 must remove the line")
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		s.AddToCart(LineItem{ProductID: id, UnitPrice: 1, Quantity: 1})
	}
	s.RemoveFromCart("b", "")
	s.RemoveFromCart("zzz", "")

	snap := s.Snapshot()
	got := ""
	for _, li := range snap.Items {
		got += li.ProductID
	}
	if got != "acd" {
		t.Fatalf("expected order acd, got %s", got)
	}
	s.AddToCart(LineItem{ProductID: "d", Quantity: 2})
	if q := s.Snapshot().Items[2].Quantity; q != 3 {
		t.Fatalf("index must follow removal, got qty %d", q)
	}
}

func TestClearCart(t *testing.T) {
	s := NewStore()
	s.AddToCart(ring(2))
	s.ClearCart()
	snap := s.Snapshot()
	if snap.Lines != 0 || snap.ItemCount != 0 || snap.Subtotal != 0 {
		t.Fatalf("expected empty cart, got %+v", snap)
	}
	s.AddToCart(ring(1))
	if s.Snapshot().Lines != 1 {
		t.Fatal("cart must be usable after clear")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.AddToCart(ring(1))
	snap := s.Snapshot()
	snap.Items[0].Quantity = 99
	if s.Snapshot().Items[0].Quantity != 1 {
		t.Fatal("snapshot must not alias store state")
	}
}

func TestConcurrentAddsAreCounted(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddToCart(ring(1))
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	if snap.Lines != 1 || snap.ItemCount != 50 || snap.Subtotal != 50000 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestCloseWithoutPersister(t *testing.T) {
	s := NewStore()
	s.Close()
	if s.PersistStats() != (PersistStats{}) {
		t.Fatal("expected zero stats")
	}
}

func TestTotalsHoldAfterEveryMutation(t *testing.T) {
	products := []string{"p1", "p2", "p3"}
	variants := []string{"", "7", "8"}

	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31))
		s := NewStore()
		for step := 0; step < 200; step++ {
			id := products[rng.IntN(len(products))]
			variant := variants[rng.IntN(len(variants))]
			switch op := rng.IntN(10); {
			case op < 5:
				s.AddToCart(LineItem{ProductID: id, Variant: variant, UnitPrice: int64(rng.IntN(5000)) - 100, Quantity: rng.IntN(5) - 1})
			case op < 8:
				s.UpdateQuantity(id, variant, rng.IntN(6)-1)
			case op < 9:
				s.RemoveFromCart(id, variant)
			default:
				s.ClearCart()
			}

			snap := s.Snapshot()
			var subtotal int64
			var count int
			for _, li := range snap.Items {
				if li.Quantity < 1 {
					t.Fatalf("seed %d step %d: line %+v has quantity below 1", seed, step, li)
				}
				subtotal += li.UnitPrice * int64(li.Quantity)
				count += li.Quantity
			}
			if snap.Subtotal != subtotal || snap.ItemCount != count || snap.Lines != len(snap.Items) {
				t.Fatalf("seed %d step %d: snapshot %+v, want subtotal %d count %d", seed, step, snap, subtotal, count)
			}
		}
	}
}
