package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const documentVersion = 1

// ErrCorruptCart is returned when a persisted cart cannot be decoded.
var ErrCorruptCart = errors.New("cart: corrupt persisted cart")

// Persister stores the item list. Load returns an empty slice when nothing is stored.
type Persister interface {
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
	Delete(ctx context.Context) error
}

// PersistConfig tunes the write-behind flusher.
type PersistConfig struct {
	// WriteTimeout bounds each Save/Delete. Default 2s.
	WriteTimeout time.Duration
}

// PersistStats counts flusher outcomes.
type PersistStats struct {
	Writes   uint64
	Failures uint64
	// Dropped counts mutations made after Close.
	Dropped uint64
}

type document struct {
	Version  int        `json:"v"`
	Revision string     `json:"rev"`
	SavedAt  time.Time  `json:"saved_at"`
	Items    []LineItem `json:"items"`
}

// RedisPersister keeps the cart as a JSON document under one key.
type RedisPersister struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisPersister stores the cart at prefix+":"+cartID. ttl <= 0 means no expiry.
func NewRedisPersister(client redis.UniversalClient, prefix, cartID string, ttl time.Duration) (*RedisPersister, error) {
	if client == nil {
		return nil, errors.New("cart: redis client is required")
	}
	if cartID == "" {
		return nil, errors.New("cart: cart id is required")
	}
	if prefix == "" {
		prefix = "cart"
	}
	return &RedisPersister{redis: client, key: prefix + ":" + cartID, ttl: ttl}, nil
}

// Key returns the Redis key used for this cart.
func (p *RedisPersister) Key() string {
	return p.key
}

// Load reads the persisted cart.
func (p *RedisPersister) Load(ctx context.Context) ([]LineItem, error) {
	raw, err := p.redis.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []LineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load %s: %w", p.key, err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrCorruptCart, err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptCart, doc.Version)
	}
	if doc.Items == nil {
		doc.Items = []LineItem{}
	}
	return doc.Items, nil
}

// Save writes items with a fresh revision id.
func (p *RedisPersister) Save(ctx context.Context, items []LineItem) error {
	raw, err := json.Marshal(document{
		Version:  documentVersion,
		Revision: uuid.NewString(),
		SavedAt:  time.Now().UTC(),
		Items:    items,
	})
	if err != nil {
		return err
	}
	if err := p.redis.Set(ctx, p.key, raw, p.ttl).Err(); err != nil {
		return fmt.Errorf("cart: save %s: %w", p.key, err)
	}
	return nil
}

// Delete removes the persisted cart.
func (p *RedisPersister) Delete(ctx context.Context) error {
	if err := p.redis.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("cart: delete %s: %w", p.key, err)
	}
	return nil
}

// flusher writes the newest pending snapshot in the background. Intermediate
// snapshots enqueued before a write starts are skipped.
type flusher struct {
	p       Persister
	timeout time.Duration
	log     logrus.FieldLogger

	pending   atomic.Pointer[[]LineItem]
	signal    chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	writes   atomic.Uint64
	failures atomic.Uint64
}

func newFlusher(p Persister, cfg PersistConfig, log logrus.FieldLogger) *flusher {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	f := &flusher{
		p:       p,
		timeout: cfg.WriteTimeout,
		log:     log,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

func (f *flusher) run() {
	defer f.wg.Done()
	for {
		select {
		case <-f.signal:
			f.flush()
		case <-f.done:
			f.flush()
			return
		}
	}
}

func (f *flusher) enqueue(items []LineItem) {
	f.pending.Store(&items)
	select {
	case f.signal <- struct{}{}:
	default:
	}
}

func (f *flusher) flush() {
	p := f.pending.Swap(nil)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	var err error
	if len(*p) == 0 {
		err = f.p.Delete(ctx)
	} else {
		err = f.p.Save(ctx, *p)
	}
	if err != nil {
		f.failures.Add(1)
		f.log.WithError(err).Warn("cart: persist failed")
		return
	}
	f.writes.Add(1)
}

func (f *flusher) stats() PersistStats {
	return PersistStats{Writes: f.writes.Load(), Failures: f.failures.Load()}
}

func (f *flusher) close() {
	if f == nil {
		return
	}
	f.closeOnce.Do(func() {
		close(f.done)
		f.wg.Wait()
	})
}
