package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/metrics/export/internaldefs"
)

// Source supplies snapshots. *storefront.Client satisfies it.
type Source interface {
	MetricsSnapshot() storefront.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders a Source on demand.
type Exporter struct {
	source Source
}

func New(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves Render at whatever path it is mounted on.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render returns the exposition text. It is empty when metrics are disabled
// and nothing was dropped.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}
	snap := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)
	for _, def := range internaldefs.Counters {
		counter(&b, def, snap.Counters[def.ID])
	}
	for _, def := range internaldefs.Histograms {
		raw, ok := snap.Histograms[def.ID]
		if !ok {
			continue
		}
		histogram(&b, def, internaldefs.Cumulative(raw))
	}
	counter(&b, internaldefs.AuditDropped, dropped)
	return b.String()
}

func header(b *strings.Builder, def internaldefs.Def, kind string) {
	b.WriteString("# HELP " + def.Name + " " + escapeHelp(def.Help) + "\n")
	b.WriteString("# TYPE " + def.Name + " " + kind + "\n")
}

func counter(b *strings.Builder, def internaldefs.Def, v uint64) {
	header(b, def, "counter")
	b.WriteString(def.Name + " " + strconv.FormatUint(v, 10) + "\n")
}

func histogram(b *strings.Builder, def internaldefs.Def, cum [internaldefs.BucketCount]uint64) {
	header(b, def, "histogram")
	for i, bound := range internaldefs.Bounds {
		b.WriteString(def.Name + `_bucket{le="` + bound.Le + `"} ` + strconv.FormatUint(cum[i], 10) + "\n")
	}
	b.WriteString(def.Name + "_count " + strconv.FormatUint(cum[len(cum)-1], 10) + "\n")
	// Snapshots carry bucket counts only.
	b.WriteString(def.Name + "_sum 0\n")
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
