package stats

import (
	"expvar"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	require.NotNil(t, su.deltas, "expected delta channel to be initialized")

	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	su.RegisterMetric("TestMetric")
	su.Run()

	su.Incr("TestMetric")
	su.Incr("TestMetric")
	su.Decr("TestMetric")

	assert.Eventually(t, func() bool {
		metric, ok := su.vars.Get("TestMetric").(*expvar.Int)
		return ok && metric.Value() == 1
	}, time.Second, 5*time.Millisecond, "expected deltas to be applied asynchronously")

	su.Stop()

	// late deltas from sessions still unwinding must neither panic nor
	// block, even with the apply goroutine gone and the buffer full
	for i := 0; i < cap(su.deltas)+1; i++ {
		su.Decr("TestMetric")
	}
}
