// Package diagnostics is a pure introspection helper: a small, mutable
// metrics bag a host process can poll for its own health endpoint. It
// performs no network I/O and runs no background goroutine, unlike the host
// library's periodic phone-home diagnostics reporter it is grounded on.
package diagnostics

import (
	"runtime"
	"sync"
	"time"

	"github.com/columnfold/tupleproc/logger"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot accumulates named metrics under a mutex so a host process can
// share it across its own goroutines.
type Snapshot struct {
	mu      sync.Mutex
	metrics map[string]interface{}
	start   time.Time
}

// NewSnapshot returns an empty Snapshot, timestamped at construction.
func NewSnapshot() *Snapshot {
	return &Snapshot{metrics: make(map[string]interface{}), start: time.Now()}
}

// Set records or overwrites a named metric.
func (s *Snapshot) Set(name string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[name] = value
}

// Metrics returns a shallow copy of every recorded metric.
func (s *Snapshot) Metrics() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.metrics))
	for k, v := range s.metrics {
		out[k] = v
	}
	return out
}

// CaptureRuntime augments the snapshot with process and host metrics. A
// failure to read host stats is logged and otherwise ignored; diagnostics
// must never affect the indexing or processing hot path.
func (s *Snapshot) CaptureRuntime(log logger.Logger) {
	if log == nil {
		log = logger.NopLogger
	}
	s.Set("go_version", runtime.Version())
	s.Set("num_goroutine", runtime.NumGoroutine())
	s.Set("uptime_seconds", time.Since(s.start).Seconds())

	if vm, err := mem.VirtualMemory(); err == nil {
		s.Set("mem_used_percent", vm.UsedPercent)
	} else {
		log.Warnf("diagnostics: memory stats unavailable: %v", err)
	}
	if info, err := host.Info(); err == nil {
		s.Set("host_uptime_seconds", info.Uptime)
		s.Set("host_os", info.OS)
	} else {
		log.Warnf("diagnostics: host stats unavailable: %v", err)
	}
}
