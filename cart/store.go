package cart

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the persistence flusher.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPersister enables write-behind persistence.
func WithPersister(p Persister, cfg PersistConfig) Option {
	return func(s *Store) {
		s.persister = p
		s.persistCfg = cfg
	}
}

// Store is the Cart Store. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []LineItem
	index map[itemKey]int

	log        logrus.FieldLogger
	persister  Persister
	persistCfg PersistConfig
	flusher    *flusher
	closed     bool
	dropped    uint64
}

// NewStore returns an empty cart.
func NewStore(opts ...Option) *Store {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Store{index: make(map[itemKey]int), log: discard}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister != nil {
		s.flusher = newFlusher(s.persister, s.persistCfg, s.log)
	}
	return s
}

// AddToCart adds item, merging quantities with an existing line of the same
// product and variant. Quantities below 1 count as 1.
func (s *Store) AddToCart(item LineItem) {
	item = normalize(item)
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[item.key()]; ok {
		s.items[i].Quantity += item.Quantity
	} else {
		s.index[item.key()] = len(s.items)
		s.items = append(s.items, item)
	}
	s.changedLocked()
}

// UpdateQuantity sets the quantity of a line. n <= 0 removes it; an absent
// line is ignored.
func (s *Store) UpdateQuantity(productID, variant string, n int) {
	if n <= 0 {
		s.RemoveFromCart(productID, variant)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[itemKey{productID: productID, variant: variant}]
	if !ok {
		return
	}
	s.items[i].Quantity = n
	s.changedLocked()
}

// RemoveFromCart deletes a line, preserving the order of the others.
func (s *Store) RemoveFromCart(productID, variant string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := itemKey{productID: productID, variant: variant}
	i, ok := s.index[k]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindexLocked()
	s.changedLocked()
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = make(map[itemKey]int)
	s.changedLocked()
}

// Snapshot returns the items in insertion order with totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.items)
}

// Restore replaces the cart with the persisted one. A missing cart leaves the
// store empty. Restore does not schedule a write.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	items, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = make(map[itemKey]int, len(items))
	for _, li := range items {
		li = normalize(li)
		if i, ok := s.index[li.key()]; ok {
			s.items[i].Quantity += li.Quantity
			continue
		}
		s.index[li.key()] = len(s.items)
		s.items = append(s.items, li)
	}
	return nil
}

// PersistStats reports flusher activity. Zero without persistence.
func (s *Store) PersistStats() PersistStats {
	if s.flusher == nil {
		return PersistStats{}
	}
	st := s.flusher.stats()
	s.mu.RLock()
	st.Dropped = s.dropped
	s.mu.RUnlock()
	return st
}

// Close flushes any pending write and stops the flusher. The cart stays usable
// in memory, but later mutations are no longer persisted and count as Dropped.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.flusher.close()
}

func (s *Store) reindexLocked() {
	clear(s.index)
	for i, li := range s.items {
		s.index[li.key()] = i
	}
}

// changedLocked must run under the write lock so snapshots reach the flusher in
// mutation order.
func (s *Store) changedLocked() {
	if s.flusher == nil {
		return
	}
	if s.closed {
		s.dropped++
		s.log.Debug("cart: store closed, change not persisted")
		return
	}
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	s.flusher.enqueue(items)
}
