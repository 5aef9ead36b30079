package forest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nestedset_forest_mutations_total",
		Help: "Completed structural mutations by operation.",
	}, []string{"op"})

	rowsTouched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nestedset_forest_rows_touched_total",
		Help: "Rows written or removed by committed mutations.",
	})

	nodesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nestedset_forest_nodes_deleted_total",
		Help: "Nodes removed by subtree deletion.",
	})
)
