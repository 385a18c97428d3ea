package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// editCollector implements prometheus.Collector, reading session counters
// on each scrape.
type editCollector struct {
	srv *Server

	opsTotal      *prometheus.Desc
	refusedTotal  *prometheus.Desc
	warningsTotal *prometheus.Desc
	navTotal      *prometheus.Desc
	eventsTotal   *prometheus.Desc
	elements      *prometheus.Desc
	historyDepth  *prometheus.Desc
	subscribers   *prometheus.Desc
	unsaved       *prometheus.Desc
	uptimeSeconds *prometheus.Desc
}

func newCollector(srv *Server) *editCollector {
	return &editCollector{
		srv: srv,

		opsTotal: prometheus.NewDesc(
			"blockedit_operations_total",
			"Total successful edit operations by kind.",
			[]string{"op"}, nil,
		),
		refusedTotal: prometheus.NewDesc(
			"blockedit_refused_total",
			"Total edit operations refused as invalid.",
			nil, nil,
		),
		warningsTotal: prometheus.NewDesc(
			"blockedit_input_warnings_total",
			"Total text edits that did not match the terminal type.",
			nil, nil,
		),
		navTotal: prometheus.NewDesc(
			"blockedit_navigations_total",
			"Total selection moves.",
			nil, nil,
		),
		eventsTotal: prometheus.NewDesc(
			"blockedit_events_total",
			"Total edit events recorded.",
			nil, nil,
		),
		elements: prometheus.NewDesc(
			"blockedit_document_elements",
			"Current number of elements in the document.",
			nil, nil,
		),
		historyDepth: prometheus.NewDesc(
			"blockedit_history_depth",
			"Current number of undoable commands.",
			nil, nil,
		),
		subscribers: prometheus.NewDesc(
			"blockedit_event_subscribers",
			"Current number of event stream subscribers.",
			nil, nil,
		),
		unsaved: prometheus.NewDesc(
			"blockedit_document_unsaved",
			"1 if the document has unsaved changes.",
			nil, nil,
		),
		uptimeSeconds: prometheus.NewDesc(
			"blockedit_session_uptime_seconds",
			"Seconds since the session started.",
			nil, nil,
		),
	}
}

func (c *editCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.opsTotal
	ch <- c.refusedTotal
	ch <- c.warningsTotal
	ch <- c.navTotal
	ch <- c.eventsTotal
	ch <- c.elements
	ch <- c.historyDepth
	ch <- c.subscribers
	ch <- c.unsaved
	ch <- c.uptimeSeconds
}

func (c *editCollector) Collect(ch chan<- prometheus.Metric) {
	sess := c.srv.sess
	if sess == nil {
		return
	}
	st := sess.Stats()
	e := st.Editor

	ops := []struct {
		name string
		v    uint64
	}{
		{"resolve", e.Resolved},
		{"input", e.Inputs},
		{"spawn", e.Spawned},
		{"remove", e.Removed},
		{"restore", e.Restored},
		{"paste", e.Pasted},
		{"copy", e.Copied},
	}
	for _, op := range ops {
		ch <- prometheus.MustNewConstMetric(c.opsTotal, prometheus.CounterValue,
			float64(op.v), op.name)
	}
	ch <- prometheus.MustNewConstMetric(c.refusedTotal, prometheus.CounterValue, float64(e.Refused))
	ch <- prometheus.MustNewConstMetric(c.warningsTotal, prometheus.CounterValue, float64(e.Warnings))
	ch <- prometheus.MustNewConstMetric(c.navTotal, prometheus.CounterValue, float64(e.Navigations))
	ch <- prometheus.MustNewConstMetric(c.eventsTotal, prometheus.CounterValue, float64(st.Events))

	ch <- prometheus.MustNewConstMetric(c.elements, prometheus.GaugeValue, float64(st.Elements))
	ch <- prometheus.MustNewConstMetric(c.historyDepth, prometheus.GaugeValue, float64(st.HistoryLen))
	ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(st.Subscribers))
	unsaved := 0.0
	if st.Dirty {
		unsaved = 1
	}
	ch <- prometheus.MustNewConstMetric(c.unsaved, prometheus.GaugeValue, unsaved)
	ch <- prometheus.MustNewConstMetric(c.uptimeSeconds, prometheus.GaugeValue, st.Uptime.Seconds())
}
