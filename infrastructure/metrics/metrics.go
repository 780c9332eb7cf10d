// Package metrics holds the prometheus collectors of the node. The
// collectors are package level so that any component may update them; they
// are only exposed once Register is called.
package metrics

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dposd"

var (
	// TipHeight is the height of the current tip
	TipHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tip_height",
		Help:      "Height of the current tip",
	})

	// ForkChoiceOutcomes counts received blocks by fork choice outcome
	ForkChoiceOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fork_choice_outcomes_total",
		Help:      "Number of received blocks per fork choice outcome",
	}, []string{"outcome"})

	// BroadhashChanges counts broadhash updates
	BroadhashChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadhash_changes_total",
		Help:      "Number of times the broadhash changed",
	})

	// ForgedBlocks counts blocks generated by this node
	ForgedBlocks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forged_blocks_total",
		Help:      "Number of blocks forged by this node",
	})

	// BlockProcessingDuration observes how long applying a block takes
	BlockProcessingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "block_processing_seconds",
		Help:      "Time spent validating, verifying and applying a block",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	// PoolQueueSize is the number of transactions in each pool queue
	PoolQueueSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_queue_size",
		Help:      "Number of transactions per transaction pool queue",
	}, []string{"queue"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		TipHeight,
		ForkChoiceOutcomes,
		BroadhashChanges,
		ForgedBlocks,
		BlockProcessingDuration,
		PoolQueueSize,
	}
}

// Register registers every collector of the node with registerer
func Register(registerer prometheus.Registerer) error {
	for _, collector := range collectors() {
		err := registerer.Register(collector)
		if err != nil {
			return errors.Wrap(err, "failed registering metrics collector")
		}
	}
	return nil
}

// ObserveSince records the time elapsed since start in histogram
func ObserveSince(histogram prometheus.Observer, start time.Time) {
	histogram.Observe(time.Since(start).Seconds())
}

// NewServer returns an HTTP server exposing the metrics gathered by
// gatherer under /metrics
func NewServer(listen string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
