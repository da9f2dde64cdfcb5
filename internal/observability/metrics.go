package observability

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	totalDuration map[string]time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		totalDuration: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RequestStat is one row of the request table.
type RequestStat struct {
	Path         string  `json:"path"`
	Method       string  `json:"method"`
	Status       string  `json:"status"`
	Count        int64   `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// ErrorStat is one row of the error table.
type ErrorStat struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Code   string `json:"code"`
	Count  int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests []RequestStat `json:"requests"`
	Errors   []ErrorStat   `json:"errors"`
}

// Snapshot copies the counters, sorted by key.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Requests: []RequestStat{}, Errors: []ErrorStat{}}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range sortedKeys(m.requestCount) {
		path, method, status := splitKey(key)
		count := m.requestCount[key]
		snap.Requests = append(snap.Requests, RequestStat{
			Path:         path,
			Method:       method,
			Status:       status,
			Count:        count,
			AvgLatencyMs: float64(m.totalDuration[key].Microseconds()) / float64(count) / 1000,
		})
	}
	for _, key := range sortedKeys(m.errorCount) {
		path, method, code := splitKey(key)
		snap.Errors = append(snap.Errors, ErrorStat{Path: path, Method: method, Code: code, Count: m.errorCount[key]})
	}
	return snap
}

func pathKey(path, method, suffix string) string {
	return path + "|" + method + "|" + suffix
}

func splitKey(key string) (string, string, string) {
	parts := strings.SplitN(key, "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
