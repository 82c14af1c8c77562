// Package perf implements a lightweight in-process timing collector shared by
// the request middleware and the timed database wrapper. Entries live in a
// fixed ring buffer; aggregation only happens when a snapshot is requested.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// Entry kinds.
const (
	KindRequest = "request"
	KindQuery   = "query"
)

// Entry is a single timing record.
type Entry struct {
	Kind       string // KindRequest or KindQuery
	Route      string // "GET /api/participants", or the query op for KindQuery
	StatusCode int    // HTTP status; zero for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer of request timings. Writes overwrite
// the oldest entry when the buffer is full.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	total   int64
}

// NewCollector builds a collector with the given ring capacity.
// PRE: size > 0, or 0 for the default
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores one entry. Lock hold time is a single struct copy.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	atomic.AddInt64(&c.total, 1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.total)
}

// RouteStat aggregates the timings of one route.
type RouteStat struct {
	Route   string  `json:"route"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	TotalMs float64 `json:"-"`
}

// Snapshot is the aggregated view served by the diagnostics endpoint.
// Percentiles cover request entries only; query timings get their own list.
type Snapshot struct {
	TotalRecorded  int64       `json:"totalRecorded"`
	P50Ms          float64     `json:"p50Ms"`
	P95Ms          float64     `json:"p95Ms"`
	P99Ms          float64     `json:"p99Ms"`
	SlowestRoutes  []RouteStat `json:"slowestRoutes"`
	SlowestQueries []RouteStat `json:"slowestQueries"`
}

// Snapshot aggregates the buffered entries recorded since the given time.
// Sorting makes this the expensive path; callers are diagnostics requests,
// not the request hot path.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	var durations []float64
	requests := make(map[string]*RouteStat)
	queries := make(map[string]*RouteStat)
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		stats := requests
		if e.Kind == KindQuery {
			stats = queries
		} else {
			durations = append(durations, e.DurationMs)
		}
		s, ok := stats[e.Route]
		if !ok {
			s = &RouteStat{Route: e.Route}
			stats[e.Route] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		if e.DurationMs > s.MaxMs {
			s.MaxMs = e.DurationMs
		}
	}

	snap := Snapshot{TotalRecorded: c.TotalRecorded()}
	snap.SlowestRoutes = rank(requests, topN)
	snap.SlowestQueries = rank(queries, topN)

	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.P50Ms = percentile(durations, 50)
		snap.P95Ms = percentile(durations, 95)
		snap.P99Ms = percentile(durations, 99)
	}
	return snap
}

// rank sorts the aggregated stats by average duration, slowest first.
func rank(stats map[string]*RouteStat, topN int) []RouteStat {
	ranked := make([]RouteStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		ranked = append(ranked, *s)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].AvgMs > ranked[j].AvgMs })
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
