package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var workItemsAdded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_dispatch_items_added",
	Help: "Number of events queued for processing",
})

var workItemsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_dispatch_items_processed",
	Help: "Number of events processed",
})

var workItemsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_dispatch_items_dropped",
	Help: "Number of queued events dropped at shutdown",
})

var lanesActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "bioguard_dispatch_lanes_active",
	Help: "Number of chats with events in flight",
})
