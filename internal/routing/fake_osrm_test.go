package routing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"field-survey-router/internal/distance"
)

// fakeOSRM is an OSRM-compatible server answering every request with a fixed
// number of legs. A gated server holds each request until gate is closed.
type fakeOSRM struct {
	*httptest.Server
	legs    int
	hits    atomic.Int32
	arrived chan struct{}
	gate    chan struct{}
}

func newFakeOSRM(t *testing.T, legs int, gated bool) *fakeOSRM {
	t.Helper()
	f := &fakeOSRM{legs: legs, arrived: make(chan struct{}, 16)}
	if gated {
		f.gate = make(chan struct{})
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOSRM) serve(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	select {
	case f.arrived <- struct{}{}:
	default:
	}
	if f.gate != nil {
		<-f.gate
	}

	legs := make([]map[string]float64, f.legs)
	for i := range legs {
		legs[i] = map[string]float64{"distance": float64(1000 * (i + 1))}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code": "Ok",
		"routes": []map[string]interface{}{{
			"geometry": map[string]interface{}{
				"type":        "LineString",
				"coordinates": [][2]float64{{81.63, 21.25}, {81.70, 21.30}},
			},
			"legs": legs,
		}},
	})
}

func (f *fakeOSRM) client() distance.RouteClient {
	return distance.NewOSRMClient(distance.ClientConfig{BaseURL: f.URL, Timeout: 5 * time.Second}, zap.NewNop())
}
