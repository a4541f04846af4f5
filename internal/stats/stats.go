package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

// StatsProvider is the metrics surface handed to the chat core. Deltas
// are applied asynchronously by a single goroutine, so callers never
// block on a counter.
type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

type StatsUpdater struct {
	vars   *expvar.Map
	deltas chan metricDelta
	stop   chan struct{}
}

type metricDelta struct {
	name  string
	delta int64
}

// NewStatsUpdater registers the expvar map and its debug route on mux.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		deltas: make(chan metricDelta, 512),
		stop:   make(chan struct{}),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	su.vars = expvar.NewMap("edupane-chat-stats")

	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))

	return su
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		data[kv.Key] = value
	})

	json.NewEncoder(w).Encode(data)
}

// RegisterMetric must be called for a counter before any delta is
// applied to it.
func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, expvar.NewInt(name))
}

func (su *StatsUpdater) Incr(name string) {
	su.send(metricDelta{name: name, delta: 1})
}

func (su *StatsUpdater) Decr(name string) {
	su.send(metricDelta{name: name, delta: -1})
}

// send drops the delta once Stop has been called, so sessions still
// unwinding during shutdown cannot panic or block here.
func (su *StatsUpdater) send(d metricDelta) {
	select {
	case <-su.stop:
	case su.deltas <- d:
	}
}

func (su *StatsUpdater) Run() {
	go su.applyDeltas()
}

func (su *StatsUpdater) applyDeltas() {
	for {
		select {
		case <-su.stop:
			return
		case d := <-su.deltas:
			metric := su.vars.Get(d.name)
			if metric == nil {
				panic("metric not found: " + d.name)
			}

			metric.(*expvar.Int).Add(d.delta)
		}
	}
}

func (su *StatsUpdater) Stop() {
	close(su.stop)
}
