package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds the service collectors. Tests build their own with New so
// counters do not leak between cases.
type Registry struct {
	reg *prometheus.Registry

	FavoriteToggles   *prometheus.CounterVec
	FavoriteConflicts prometheus.Counter
	CascadeDeletes    prometheus.Counter
	DanglingFavorites prometheus.Counter
	CaptionRequests   *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		FavoriteToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "furnimarket",
			Name:      "favorite_toggles_total",
			Help:      "Favorite toggles by resulting state.",
		}, []string{"state"}),
		FavoriteConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "furnimarket",
			Name:      "favorite_conflicts_total",
			Help:      "Toggle attempts rejected by the favorites primary key.",
		}),
		CascadeDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "furnimarket",
			Name:      "favorite_cascade_deletes_total",
			Help:      "Favorite rows removed because their item was deleted.",
		}),
		DanglingFavorites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "furnimarket",
			Name:      "dangling_favorites_total",
			Help:      "Favorites found referencing a missing item.",
		}),
		CaptionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "furnimarket",
			Name:      "caption_requests_total",
			Help:      "Image caption requests by outcome.",
		}, []string{"outcome"}),
	}
	r.reg.MustRegister(
		r.FavoriteToggles,
		r.FavoriteConflicts,
		r.CascadeDeletes,
		r.DanglingFavorites,
		r.CaptionRequests,
		collectors.NewGoCollector(),
	)
	return r
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
