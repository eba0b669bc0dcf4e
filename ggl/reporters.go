package ggl

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reporterHitsTotal counts hits passing through a CountingReporter, by stage name.
	reporterHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ggl_match_hits_total",
		Help: "Total match hits reported, by reporter stage",
	}, []string{"stage"})
)

// CountingReporter counts the hits it sees and forwards them to Next (if set).
type CountingReporter struct {
	Stage string   // metric label
	Next  Reporter // optional downstream stage
	hits  atomic.Int64
}

func NewCountingReporter(stage string, next Reporter) *CountingReporter {
	return &CountingReporter{
		Stage: stage,
		Next:  next,
	}
}

func (cr *CountingReporter) ReportHit(P Pattern, X Graph, m Match) bool {
	cr.hits.Add(1)
	reporterHitsTotal.WithLabelValues(cr.Stage).Inc()
	if cr.Next != nil {
		return cr.Next.ReportHit(P, X, m)
	}
	return true
}

// Count returns the number of hits seen so far.
func (cr *CountingReporter) Count() int {
	return int(cr.hits.Load())
}

// CollectingReporter retains a copy of every match it sees.
type CollectingReporter struct {
	Matches []Match
}

func (cr *CollectingReporter) ReportHit(P Pattern, X Graph, m Match) bool {
	cr.Matches = append(cr.Matches, m.Clone())
	return true
}

// StopAfter forwards hits to next and requests the search to stop after n hits.
func StopAfter(n int, next Reporter) Reporter {
	count := 0
	return ReporterFunc(func(P Pattern, X Graph, m Match) bool {
		count++
		cont := true
		if next != nil {
			cont = next.ReportHit(P, X, m)
		}
		return cont && count < n
	})
}
