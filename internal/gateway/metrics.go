package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_graphql_requests_total",
		Help: "GraphQL operations sent to the backend by outcome.",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_graphql_request_duration_seconds",
		Help:    "Latency of GraphQL request/response operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	subscriptionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_graphql_subscription_events_total",
		Help: "Events received on subscription streams.",
	}, []string{"operation"})
)
