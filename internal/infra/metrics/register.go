package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register enqueues collectors; each file in this package calls it from
// init() so main only wires up metrics it actually compiled in.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister installs every enqueued collector into the default Prometheus
// registry. Safe to call more than once; only the first call registers.
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}
