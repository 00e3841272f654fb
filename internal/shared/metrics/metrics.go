package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

// collector writes one metric family in Prometheus text format.
type collector interface {
	write(buf *bytes.Buffer)
}

var (
	qnaRequests   = newCounterVec("qna_requests_total", "QnA requests by orchestrator state", "state")
	qnaDegraded   = newCounterVec("qna_degraded_total", "Converse requests answered without a structured result", "")
	primeFailed   = newCounterVec("qna_prime_failed_total", "Detached priming calls that failed", "")
	teamsMessages = newCounterVec("teams_messages_total", "Error cards posted to the chat webhook by outcome", "outcome")

	completionDuration = newHistogram("llm_completion_duration_ms", "Completion call duration in milliseconds",
		[]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})

	registry = []collector{qnaRequests, qnaDegraded, primeFailed, teamsMessages, completionDuration}
)

// IncColdStart counts a request that took the cold start path.
func IncColdStart() { qnaRequests.Inc("cold_start") }

// IncConverse counts a request that took the converse path.
func IncConverse() { qnaRequests.Inc("converse") }

// IncDegraded counts a converse request answered with a bare acknowledgement.
func IncDegraded() { qnaDegraded.Inc("") }

// IncPrimeFailed counts a failed detached priming call.
func IncPrimeFailed() { primeFailed.Inc("") }

// IncTeams counts a chat webhook post.
func IncTeams(ok bool) {
	if ok {
		teamsMessages.Inc("sent")
		return
	}
	teamsMessages.Inc("failed")
}

// ObserveCompletionMs records a completion call duration in milliseconds.
func ObserveCompletionMs(value float64) {
	completionDuration.Observe(max(value, 0))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders every registered metric.
func Render() string {
	var buf bytes.Buffer
	for _, c := range registry {
		c.write(&buf)
	}
	return buf.String()
}

// counterVec is a counter family with at most one label. An empty label
// name renders a plain counter.
type counterVec struct {
	name, help, label string

	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec(name, help, label string) *counterVec {
	return &counterVec{name: name, help: help, label: label, values: map[string]uint64{}}
}

func (v *counterVec) Inc(labelValue string) {
	v.mu.Lock()
	v.values[labelValue]++
	v.mu.Unlock()
}

func (v *counterVec) write(buf *bytes.Buffer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	writeHeader(buf, v.name, v.help, "counter")
	if v.label == "" {
		fmt.Fprintf(buf, "%s %d\n", v.name, v.values[""])
		return
	}
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", v.name, v.label, k, v.values[k])
	}
}

type histogram struct {
	name, help string

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

func newHistogram(name, help string, buckets []float64) *histogram {
	return &histogram{name: name, help: help, buckets: buckets, counts: make([]uint64, len(buckets))}
}

// Observe adds value to the first bucket that holds it; writers accumulate.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func (h *histogram) write(buf *bytes.Buffer) {
	snap := h.Snapshot()
	writeHeader(buf, h.name, h.help, "histogram")
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", h.name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", h.name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", h.name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", h.name, snap.count)
}

func writeHeader(buf *bytes.Buffer, name, help, kind string) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
