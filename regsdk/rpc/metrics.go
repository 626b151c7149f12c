package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
)

var registrationOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "rpc",
		Name:      "registration_ops_total",
		Help:      "Total number of accepted registry operations",
	},
	[]string{"op"},
)

func init() {
	prometheus.MustRegister(registrationOps)
}
