package offer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offer_transitions_total",
		Help: "Offer workflow transitions by operation and outcome",
	}, []string{"operation", "outcome"})

	autoRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offer_auto_rejected_total",
		Help: "Sibling offers rejected because another offer was accepted or the request was cancelled",
	})
)
