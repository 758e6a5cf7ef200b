package storefront

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// auditDispatcher relays events to the sink on one goroutine so session
// operations never wait on sink I/O.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	now        func() time.Time

	queue     chan AuditEvent
	stop      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	delivered atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// newAuditDispatcher returns nil when audit is disabled; a nil dispatcher
// accepts and discards events.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		now:        time.Now,
		queue:      make(chan AuditEvent, size),
		stop:       make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *auditDispatcher) loop() {
	defer d.wg.Done()
	ctx := context.Background()
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		case <-d.stop:
			for {
				select {
				case ev := <-d.queue:
					d.deliver(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

func (d *auditDispatcher) deliver(ctx context.Context, ev AuditEvent) {
	d.sink.Emit(ctx, ev)
	d.delivered.Add(1)
}

// emit stamps and queues ev. With dropIfFull a full queue counts a drop;
// otherwise emit waits for room, ctx, or Close.
func (d *auditDispatcher) emit(ctx context.Context, ev AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = d.now().UTC()
	}

	if d.dropIfFull {
		select {
		case d.queue <- ev:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
	}
}

// close drains queued events and stops the worker. Safe to call repeatedly.
func (d *auditDispatcher) close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.wg.Wait()
	})
}

func (d *auditDispatcher) droppedCount() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *auditDispatcher) deliveredCount() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
