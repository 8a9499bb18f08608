package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues collectors from each file's init(); nothing is exposed
// until MustRegister runs at startup.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister adds every queued collector to the default registry. Later
// calls are no-ops, so tests and main can both call it.
func MustRegister() {
	registerOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
