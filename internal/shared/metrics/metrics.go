package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	generationsTotal     atomic.Uint64
	rendersSucceeded     atomic.Uint64
	rendersFailed        atomic.Uint64
	advisoryFallbacks    atomic.Uint64
	advisoryCacheHits    atomic.Uint64
	advisoryAttemptFails atomic.Uint64

	renderDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncGenerations counts one campaign generation run.
func IncGenerations() { generationsTotal.Add(1) }

// IncRenderSucceeded counts one template rendered and stored.
func IncRenderSucceeded() { rendersSucceeded.Add(1) }

// IncRenderFailed counts one template that could not be rendered.
func IncRenderFailed() { rendersFailed.Add(1) }

// IncAdvisoryFallback counts a bundle produced by the heuristic classifier.
func IncAdvisoryFallback() { advisoryFallbacks.Add(1) }

// IncAdvisoryCacheHit counts a bundle served from the advisory cache.
func IncAdvisoryCacheHit() { advisoryCacheHits.Add(1) }

// IncAdvisoryAttemptFailed counts one failed advisory attempt.
func IncAdvisoryAttemptFailed() { advisoryAttemptFails.Add(1) }

// ObserveRenderDurationMs records a per-template render duration in milliseconds.
func ObserveRenderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	renderDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "campaign_generations_total", "Total campaign generation runs", generationsTotal.Load())
	writeCounter(&buf, "renders_succeeded_total", "Total templates rendered", rendersSucceeded.Load())
	writeCounter(&buf, "renders_failed_total", "Total templates that failed to render", rendersFailed.Load())
	writeCounter(&buf, "advisory_fallbacks_total", "Total bundles produced by the heuristic classifier", advisoryFallbacks.Load())
	writeCounter(&buf, "advisory_cache_hits_total", "Total bundles served from cache", advisoryCacheHits.Load())
	writeCounter(&buf, "advisory_attempts_failed_total", "Total failed advisory attempts", advisoryAttemptFails.Load())
	writeHistogram(&buf, "render_duration_ms", "Per-template render duration in milliseconds", renderDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
