package p2p

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	metricsInitOnce sync.Once
	sharedMetrics   *bookMetrics
)

type bookMetrics struct {
	knownAddresses *prometheus.GaugeVec
	connecting     prometheus.Gauge
	admissions     *prometheus.CounterVec
	bans           prometheus.Counter
	evictions      *prometheus.CounterVec

	meter            metric.Meter
	admissionCounter metric.Int64Counter
	banCounter       metric.Int64Counter
}

func newBookMetrics() *bookMetrics {
	metricsInitOnce.Do(func() {
		bm := &bookMetrics{
			knownAddresses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "driftnet_addressbook_known_addresses",
				Help: "Known peer addresses by transport protocol.",
			}, []string{"protocol"}),
			connecting: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "driftnet_addressbook_connecting",
				Help: "Records currently in the connecting state.",
			}),
			admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "driftnet_addressbook_admissions_total",
				Help: "Address admission outcomes.",
			}, []string{"result"}),
			bans: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "driftnet_addressbook_bans_total",
				Help: "Records transitioned into the banned state.",
			}),
			evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "driftnet_addressbook_evictions_total",
				Help: "Records removed from the book by cause.",
			}, []string{"cause"}),
		}
		prometheus.MustRegister(bm.knownAddresses, bm.connecting, bm.admissions, bm.bans, bm.evictions)
		bm.initMeter()
		sharedMetrics = bm
	})
	return sharedMetrics
}

func (m *bookMetrics) initMeter() {
	meter := otel.GetMeterProvider().Meter("driftnet/p2p")
	admission, err := meter.Int64Counter("driftnet.addressbook.admissions")
	if err != nil {
		fallback := noop.NewMeterProvider().Meter("driftnet/p2p")
		admission, _ = fallback.Int64Counter("driftnet.addressbook.admissions")
		meter = fallback
	}
	banCounter, err := meter.Int64Counter("driftnet.addressbook.bans")
	if err != nil {
		fallback := noop.NewMeterProvider().Meter("driftnet/p2p")
		banCounter, _ = fallback.Int64Counter("driftnet.addressbook.bans")
		meter = fallback
	}
	m.meter = meter
	m.admissionCounter = admission
	m.banCounter = banCounter
}

func (m *bookMetrics) recordAdmission(result string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(result).Inc()
	m.admissionCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("result", result)))
}

func (m *bookMetrics) recordBan() {
	if m == nil {
		return
	}
	m.bans.Inc()
	m.banCounter.Add(context.Background(), 1)
}

func (m *bookMetrics) recordEviction(cause string) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(cause).Inc()
}

func (m *bookMetrics) setKnown(protocol Protocol, count int) {
	if m == nil {
		return
	}
	m.knownAddresses.WithLabelValues(protocol.String()).Set(float64(count))
}

func (m *bookMetrics) setConnecting(count int) {
	if m == nil {
		return
	}
	m.connecting.Set(float64(count))
}
