package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source supplies snapshots. *storefront.Client satisfies it.
type Source interface {
	MetricsSnapshot() storefront.MetricsSnapshot
	AuditDropped() uint64
}

type counterInstrument struct {
	id  storefront.MetricID
	ins metric.Int64ObservableCounter
}

type histogramInstruments struct {
	id      storefront.MetricID
	buckets [internaldefs.BucketCount]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter owns the callback registration.
type Exporter struct {
	source       Source
	registration metric.Registration
	counters     []counterInstrument
	histograms   []histogramInstruments
	dropped      metric.Int64ObservableCounter
}

// New creates the instruments on meter and registers the collection callback.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.Counters {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterInstrument{id: def.ID, ins: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.Histograms {
		h := histogramInstruments{id: def.ID}
		for i, bound := range internaldefs.Bounds {
			name := def.Name + "_bucket_le_" + bound.Suffix
			g, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative bucket count."), metric.WithUnit("{call}"))
			if err != nil {
				return nil, fmt.Errorf("bucket %s: %w", name, err)
			}
			h.buckets[i] = g
			observables = append(observables, g)
		}
		g, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", def.Name, err)
		}
		h.count = g
		observables = append(observables, g)
		e.histograms = append(e.histograms, h)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDropped.Name, metric.WithDescription(internaldefs.AuditDropped.Help))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDropped.Name, err)
	}
	e.dropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.ins, int64(snap.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snap.Histograms[h.id]
		if !ok {
			continue
		}
		cum := internaldefs.Cumulative(raw)
		for i := range cum {
			o.ObserveInt64(h.buckets[i], int64(cum[i]))
		}
		o.ObserveInt64(h.count, int64(cum[len(cum)-1]))
	}
	o.ObserveInt64(e.dropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
