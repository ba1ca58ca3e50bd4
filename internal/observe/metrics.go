package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	onlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_users",
		Help: "Number of registered (active) users",
	})

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sessions_total",
			Help: "Total accepted connections by transport",
		},
		[]string{"transport"}, // tcp|ws
	)

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total routed messages by kind",
		},
		[]string{"kind"}, // broadcast|unicast|notice
	)

	droppedDeliveriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_dropped_deliveries_total",
		Help: "Total per-recipient writes that failed and were dropped",
	})

	rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_registrations_rejected_total",
			Help: "Total rejected registrations by reason",
		},
		[]string{"reason"}, // empty|taken|closing
	)

	protocolErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_protocol_errors_total",
			Help: "Total protocol errors reported to senders by reason",
		},
		[]string{"reason"}, // format|recipient|not_found|panic
	)

	mirrorDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_mirror_dropped_total",
		Help: "Total events not mirrored because the mirror queue was full",
	})
)

func init() {
	prometheus.MustRegister(
		onlineUsers,
		sessionsTotal,
		messagesTotal,
		droppedDeliveriesTotal,
		rejectedTotal,
		protocolErrorsTotal,
		mirrorDroppedTotal,
	)
}

func SetOnline(n int)                { onlineUsers.Set(float64(n)) }
func IncSession(transport string)    { sessionsTotal.WithLabelValues(transport).Inc() }
func IncMessage(kind string)         { messagesTotal.WithLabelValues(kind).Inc() }
func IncDropped()                    { droppedDeliveriesTotal.Inc() }
func IncRejected(reason string)      { rejectedTotal.WithLabelValues(reason).Inc() }
func IncProtocolError(reason string) { protocolErrorsTotal.WithLabelValues(reason).Inc() }
func IncMirrorDropped()              { mirrorDroppedTotal.Inc() }
