package mirror

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fwhub/fwcache-cli/pkg/utils"
)

var (
	metOnce     sync.Once
	metMirrored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fwcache_mirror_fetched_total",
		Help: "Release files fetched into the mirror tree",
	})
	metUpToDate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fwcache_mirror_up_to_date_total",
		Help: "Release files already present and skipped",
	})
	metFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fwcache_mirror_failed_total",
		Help: "Release files that failed to mirror",
	})
	metBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fwcache_mirror_bytes_total",
		Help: "Total bytes fetched into the mirror tree",
	})
)

func initMetrics() {
	metOnce.Do(func() {
		prometheus.MustRegister(metMirrored, metUpToDate, metFailed, metBytes)
	})
}

// StartMetricsServer exposes Prometheus metrics when addr is non-empty.
// The server runs for the lifetime of the process; mirror runs are short
// enough that a graceful shutdown buys nothing.
func StartMetricsServer(addr string) {
	if addr == "" {
		return
	}
	initMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		utils.Info("metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			utils.Error("metrics server error: %v", err)
		}
	}()
}
