package mqtt

import "github.com/prometheus/client_golang/prometheus"

// Stat holds the per-client counters exposed to Prometheus, adapted from
// the broker-side counters this codebase has always kept next to the wire
// protocol (packets/bytes sent and received, active connections).
type Stat struct {
	ActiveSessions prometheus.Gauge
	PacketSent     prometheus.Counter
	PacketReceived prometheus.Counter
	ByteSent       prometheus.Counter
	ByteReceived   prometheus.Counter
	PingSent       prometheus.Counter
	PongReceived   prometheus.Counter
	AckTimeouts    prometheus.Counter
}

// NewStat builds a fresh, unregistered Stat. Register attaches it to a
// prometheus.Registerer.
func NewStat() *Stat {
	return &Stat{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt_client_active_sessions",
			Help: "1 while the client session is connected, 0 otherwise.",
		}),
		PacketSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_client_packet_sent_total",
			Help: "Control packets written to the broker.",
		}),
		PacketReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_client_packet_received_total",
			Help: "Control packets read from the broker.",
		}),
		ByteSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_client_byte_sent_total",
			Help: "Bytes written to the broker.",
		}),
		ByteReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_client_byte_received_total",
			Help: "Bytes read from the broker.",
		}),
		PingSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_client_ping_sent_total",
			Help: "PINGREQ packets sent, by the keep-alive loop or Ping.",
		}),
		PongReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_client_pong_received_total",
			Help: "PINGRESP packets received from the broker.",
		}),
		AckTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_client_ack_timeouts_total",
			Help: "Requests that failed waiting for their acknowledgement.",
		}),
	}
}

// Register adds every metric to reg. Call once per process; a second
// client sharing the registry should pass a registry wrapped with a
// distinguishing const label instead of calling Register twice.
func (s *Stat) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		s.ActiveSessions, s.PacketSent, s.PacketReceived,
		s.ByteSent, s.ByteReceived, s.PingSent, s.PongReceived, s.AckTimeouts,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
