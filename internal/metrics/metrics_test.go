package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/tiered-sto/internal/uistate"
)

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveAction(uistate.TypeAsyncStart)
	r.ObserveAction(uistate.TypeAsyncStart)
	r.ObserveAction(uistate.TypeAsyncError)
	r.ObserveStale(uistate.TypeAsyncComplete)
	r.ObserveOperation("Loading", 20*time.Millisecond, false)

	assert.InDelta(t, 2, testutil.ToFloat64(r.actionsTotal.WithLabelValues(uistate.TypeAsyncStart)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.actionsTotal.WithLabelValues(uistate.TypeAsyncError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.staleTotal.WithLabelValues(uistate.TypeAsyncComplete)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.operationDuration))
}

func TestRecorder_WiredIntoStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	store := uistate.NewStore(nil, uistate.WithRecorder(r))

	uistate.Run(context.Background(), store, func(context.Context) (uistate.Payload, error) {
		return uistate.Payload{"tokens": []string{"T1"}}, nil
	}, "Loading your security tokens")
	uistate.Run(context.Background(), store, func(context.Context) (uistate.Payload, error) {
		return nil, errors.New("Network error")
	}, "Loading Security Token Offerings.")

	assert.InDelta(t, 2, testutil.ToFloat64(r.actionsTotal.WithLabelValues(uistate.TypeAsyncStart)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.actionsTotal.WithLabelValues(uistate.TypeAsyncComplete)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.actionsTotal.WithLabelValues(uistate.TypeAsyncError)), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tiered_sto_operation_duration_seconds")
	assert.Equal(t, 2, testutil.CollectAndCount(r.operationDuration))
}
