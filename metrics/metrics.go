// Package metrics exposes peerlink activity as Prometheus counters.
//
// A Collector is registered on a caller-supplied prometheus.Registerer so
// tests and embedders can keep their own registries:
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New(reg)
//	client, _ := peerlink.NewClient(engine, peerlink.WithMetrics(m))
//
// Every method is safe to call on a nil *Collector, which records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "peerlink"

// Dial reasons.
const (
	DialOpen   = "open"
	DialRetry  = "retry"
	DialResume = "resume"
	DialRepair = "repair"
)

// Inbound routes.
const (
	RouteTimeline = "timeline"
	RouteInbox    = "inbox"
)

// Contact origins.
const (
	OriginInbound = "inbound"
	OriginManual  = "manual"
	OriginCard    = "card"
)

// Send results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector holds the peerlink counters.
type Collector struct {
	dials         *prometheus.CounterVec
	inbound       *prometheus.CounterVec
	contacts      *prometheus.CounterVec
	sends         *prometheus.CounterVec
	notifications prometheus.Counter
	persistErrors prometheus.Counter
}

// New creates a Collector and registers it on reg. A nil reg leaves the
// counters unregistered, which is convenient for tests.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		dials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dials_total",
			Help:      "Dial attempts issued to the engine, by reason.",
		}, []string{"reason"}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound messages routed, by destination.",
		}, []string{"route"}),
		contacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_created_total",
			Help:      "Contacts added to the ledger, by origin.",
		}, []string{"origin"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Outbound sends, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "User-visible notifications emitted.",
		}),
		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_persist_errors_total",
			Help:      "Failed contact ledger writes.",
		}),
	}

	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.dials, c.inbound, c.contacts, c.sends, c.notifications, c.persistErrors} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// Dial counts one dial attempt.
func (c *Collector) Dial(reason string) {
	if c == nil {
		return
	}
	c.dials.WithLabelValues(reason).Inc()
}

// Inbound counts one routed inbound message.
func (c *Collector) Inbound(route string) {
	if c == nil {
		return
	}
	c.inbound.WithLabelValues(route).Inc()
}

// ContactCreated counts one new ledger entry.
func (c *Collector) ContactCreated(origin string) {
	if c == nil {
		return
	}
	c.contacts.WithLabelValues(origin).Inc()
}

// Send counts one outbound send.
func (c *Collector) Send(result string) {
	if c == nil {
		return
	}
	c.sends.WithLabelValues(result).Inc()
}

// Notification counts one emitted notification.
func (c *Collector) Notification() {
	if c == nil {
		return
	}
	c.notifications.Inc()
}

// PersistError counts one failed ledger write.
func (c *Collector) PersistError() {
	if c == nil {
		return
	}
	c.persistErrors.Inc()
}
