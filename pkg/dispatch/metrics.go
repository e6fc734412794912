// ABOUTME: Prometheus metrics for decoder dispatch
// ABOUTME: Decode outcomes, concealment, output samples and open streams
package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio/decode"
)

// Decode results used as the result label
const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics holds the dispatch collectors
type Metrics struct {
	DecodeTotal   *prometheus.CounterVec
	PLCTotal      *prometheus.CounterVec
	SamplesTotal  *prometheus.CounterVec
	StreamsActive prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecodeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audiodecoder_decode_total",
			Help: "Total number of payload decode calls by codec and result",
		}, []string{"codec", "result"}),
		PLCTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audiodecoder_plc_total",
			Help: "Total number of frames concealed by codec",
		}, []string{"codec"}),
		SamplesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audiodecoder_samples_total",
			Help: "Total number of decoded samples by codec, all channels",
		}, []string{"codec"}),
		StreamsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audiodecoder_streams_active",
			Help: "Current number of open decoder streams",
		}),
	}
}

func (m *Metrics) observeDecode(t decode.Type, samples int, err error) {
	if err != nil {
		m.DecodeTotal.WithLabelValues(t.String(), resultError).Inc()
		return
	}
	m.DecodeTotal.WithLabelValues(t.String(), resultOK).Inc()
	m.SamplesTotal.WithLabelValues(t.String()).Add(float64(samples))
}

func (m *Metrics) observePlc(t decode.Type, frames, samples int) {
	m.PLCTotal.WithLabelValues(t.String()).Add(float64(frames))
	m.SamplesTotal.WithLabelValues(t.String()).Add(float64(samples))
}
