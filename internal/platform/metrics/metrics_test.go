package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementVotesAdmitted()
	m.IncrementVotesAdmitted()
	m.IncrementVotesRejected("already_voted")
	m.AddRoomSubscribers(3)
	m.AddRoomSubscribers(-1)
	m.IncrementBroadcasts()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VotesAdmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesRejected.WithLabelValues("already_voted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoomSubscribers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}
