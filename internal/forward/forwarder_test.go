package forward

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/metrics"
)

func ptr(f float64) *float64 { return &f }

func TestBuildObservation_WithLocation(t *testing.T) {
	meta := Meta{
		DevID:     "70B3D57BA0000001",
		Latitude:  ptr(60.189692),
		Longitude: ptr(24.949541),
		Country:   "FI",
		Locality:  "Helsinki",
		Street:    "Park Sinebrychoff",
	}
	ts := time.Date(2019, 3, 19, 4, 52, 52, 0, time.UTC)
	obs := BuildObservation("", meta, ts, map[string]any{"batt": 3.037, "electrical_conductivity": 0.0})

	assert.Equal(t, "70B3D57BA0000001", obs.ID)
	assert.Equal(t, DefaultEntityType, obs.Type)
	assert.Equal(t, "2019-03-19T04:52:52Z", obs.DateObserved)
	require.NotNil(t, obs.Location)
	assert.Equal(t, []float64{24.949541, 60.189692}, obs.Location.Coordinates)
	assert.Equal(t, "Helsinki", obs.Address.Locality)

	b, err := json.Marshal(obs)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "batt")
	assert.Contains(t, m, "electrical_conductivity")
	assert.NotContains(t, m, "dielectric_permittivity")
	assert.NotContains(t, m, "volumetric_water_content")
}

func TestBuildObservation_MissingCoordinate(t *testing.T) {
	obs := BuildObservation("X", Meta{DevID: "d", Latitude: ptr(60.1)}, time.Now(), nil)
	assert.Nil(t, obs.Location)

	b, err := json.Marshal(obs)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "location")
	assert.Contains(t, string(b), "address")
}

func TestForwarder_Success(t *testing.T) {
	var got Observation
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := metrics.NewAppMetrics(nil)
	f := New(srv.Client(), zap.NewNop(), m)
	ok := f.Forward(context.Background(), Config{URL: srv.URL}, Observation{ID: "dev-1", Type: DefaultEntityType, Batt: ptr(3.037)})

	assert.True(t, ok)
	assert.Equal(t, "dev-1", got.ID)
	require.NotNil(t, got.Batt)
	assert.InDelta(t, 3.037, *got.Batt, 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForwardTotal.WithLabelValues("success")))
}

// 非 2xx 返回 false，且不重试
func TestForwarder_ErrorStatusNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := metrics.NewAppMetrics(nil)
	f := New(srv.Client(), zap.NewNop(), m)
	ok := f.Forward(context.Background(), Config{URL: srv.URL}, Observation{ID: "dev-1"})

	assert.False(t, ok)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForwardTotal.WithLabelValues("failed")))
}

func TestForwarder_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := New(nil, nil, nil)
	assert.False(t, f.Forward(context.Background(), Config{URL: url}, Observation{ID: "dev-1"}))
	assert.False(t, f.Forward(context.Background(), Config{URL: "://bad"}, Observation{ID: "dev-1"}))
}
