package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the vote and realtime paths.
type Metrics struct {
	VotesAdmitted   prometheus.Counter
	VotesRejected   *prometheus.CounterVec
	Broadcasts      prometheus.Counter
	RoomSubscribers prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VotesAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_votes_admitted_total",
			Help: "Total number of votes written to the store",
		}),
		VotesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "livepoll_votes_rejected_total",
			Help: "Total number of vote attempts rejected, by reason",
		}, []string{"reason"}),
		Broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_broadcasts_total",
			Help: "Total number of tally broadcasts to poll rooms",
		}),
		RoomSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livepoll_room_subscribers",
			Help: "Current number of room memberships across all polls",
		}),
	}
}

func (m *Metrics) IncrementVotesAdmitted() {
	m.VotesAdmitted.Inc()
}

func (m *Metrics) IncrementVotesRejected(reason string) {
	m.VotesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementBroadcasts() {
	m.Broadcasts.Inc()
}

func (m *Metrics) AddRoomSubscribers(delta int) {
	m.RoomSubscribers.Add(float64(delta))
}
