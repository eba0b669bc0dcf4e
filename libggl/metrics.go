package libggl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ruleApplicationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ggl_rule_applications_total",
		Help: "Total rule applications, by rule name and outcome (applied, abandoned)",
	}, []string{"rule", "outcome"})

	expandGraphsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ggl_expand_graphs_total",
		Help: "Total new graphs discovered by Expand",
	})
)
