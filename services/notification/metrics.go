package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_external_sends_total",
		Help: "External notification sends by channel and outcome",
	}, []string{"channel", "outcome"})

	requeuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_requeued_total",
		Help: "External deliveries handed to the background queue",
	}, []string{"channel"})

	inAppCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_in_app_created_total",
		Help: "In-app notifications created by type",
	}, []string{"type"})
)
