package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auditor_queries_total",
		Help: "Queries processed, labeled by routing decision.",
	}, []string{"route"})

	storeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auditor_store_errors_total",
		Help: "Invoice store failures rendered as in-band errors.",
	})

	retrievedChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auditor_retrieved_chunks",
		Help:    "Document chunks returned per hybrid retrieval.",
		Buckets: prometheus.LinearBuckets(0, 1, 11),
	})
)
