package regsdk

import (
	"context"

	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xAtelerix/registry-sdk/regsdk/state"
)

var (
	RegisteredEntities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "registry",
			Subsystem: "state",
			Name:      "entities",
			Help:      "Number of registered entities",
		},
	)

	RegisteredNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "registry",
			Subsystem: "state",
			Name:      "nodes",
			Help:      "Number of registered nodes",
		},
	)

	CurrentEpoch = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "registry",
			Subsystem: "state",
			Name:      "epoch",
			Help:      "Current registration epoch",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RegisteredEntities,
		RegisteredNodes,
		CurrentEpoch,
	)
}

// UpdateStateMetrics refreshes the registry state gauges from the database.
func UpdateStateMetrics(ctx context.Context, db kv.RoDB) error {
	return db.View(ctx, func(tx kv.Tx) error {
		view := state.NewView(tx)

		entities, err := view.Entities()
		if err != nil {
			return err
		}

		RegisteredEntities.Set(float64(len(entities)))

		var nodes int

		for _, entity := range entities {
			owned, err := view.EntityNodes(entity.ID)
			if err != nil {
				return err
			}

			nodes += len(owned)
		}

		RegisteredNodes.Set(float64(nodes))

		return nil
	})
}
