package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AdvisoriesTotal    uint64
	AdvisoriesFailed   uint64
	DraftsCreated      uint64
	DraftsFailed       uint64
	DraftsSkipped      uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

// IncrementSuccess increments successful request counter
func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

// IncrementFailed increments failed request counter
func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// IncrementAdvisories increments total advisory analyses counter
func IncrementAdvisories() {
	atomic.AddUint64(&globalMetrics.AdvisoriesTotal, 1)
}

// IncrementAdvisoriesFailed increments failed advisory analyses counter
func IncrementAdvisoriesFailed() {
	atomic.AddUint64(&globalMetrics.AdvisoriesFailed, 1)
}

// AddDraftOutcomes records the outcome counts of a draft promotion batch
func AddDraftOutcomes(created, failed, skipped uint64) {
	atomic.AddUint64(&globalMetrics.DraftsCreated, created)
	atomic.AddUint64(&globalMetrics.DraftsFailed, failed)
	atomic.AddUint64(&globalMetrics.DraftsSkipped, skipped)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"advisories_total":     atomic.LoadUint64(&globalMetrics.AdvisoriesTotal),
		"advisories_failed":    atomic.LoadUint64(&globalMetrics.AdvisoriesFailed),
		"drafts_created":       atomic.LoadUint64(&globalMetrics.DraftsCreated),
		"drafts_failed":        atomic.LoadUint64(&globalMetrics.DraftsFailed),
		"drafts_skipped":       atomic.LoadUint64(&globalMetrics.DraftsSkipped),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
