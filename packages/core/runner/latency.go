package runner

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minTrackable = 1
	// 60s in microseconds
	maxTrackable = 60_000_000
)

// LatencySummary describes the distribution of response times in a run.
type LatencySummary struct {
	Count int64         `json:"count"`
	Min   time.Duration `json:"min"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// latencyRecorder is safe for concurrent use.
type latencyRecorder struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
}

func newLatencyRecorder() *latencyRecorder {
	return &latencyRecorder{
		histogram: hdrhistogram.New(minTrackable, maxTrackable, 3),
	}
}

// Record adds d, clamped to the trackable range.
func (l *latencyRecorder) Record(d time.Duration) {
	us := d.Microseconds()
	if us < minTrackable {
		us = minTrackable
	}
	if us > maxTrackable {
		us = maxTrackable
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.histogram.RecordValue(us)
}

func (l *latencyRecorder) Summary() LatencySummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.histogram
	if h.TotalCount() == 0 {
		return LatencySummary{}
	}

	return LatencySummary{
		Count: h.TotalCount(),
		Min:   micros(h.Min()),
		Mean:  time.Duration(h.Mean() * float64(time.Microsecond)),
		P50:   micros(h.ValueAtQuantile(50)),
		P95:   micros(h.ValueAtQuantile(95)),
		P99:   micros(h.ValueAtQuantile(99)),
		Max:   micros(h.Max()),
	}
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
