package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 客户端与转发指标
type AppMetrics struct {
	ConnectTotal    *prometheus.CounterVec // labels: result=ok|timeout|error
	ReconnectTotal  prometheus.Counter
	AuthTotal       *prometheus.CounterVec // labels: result=ok|rejected
	ConnState       prometheus.Gauge       // 0=disconnected 1=connecting 2=authenticating 3=connected
	FramesSent      *prometheus.CounterVec // labels: cmd
	FramesReceived  *prometheus.CounterVec // labels: cmd
	BytesSent       prometheus.Counter
	BytesReceived   prometheus.Counter
	DispatchIgnored *prometheus.CounterVec // labels: reason
	RelayDatagrams  *prometheus.CounterVec // labels: result=ok|bad|limited|error
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		ConnectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinlink_connect_total",
			Help: "Connect attempts by result.",
		}, []string{"result"}),
		ReconnectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinlink_reconnect_total",
			Help: "Reconnect attempts triggered by the keepalive timer.",
		}),
		AuthTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinlink_auth_total",
			Help: "Login responses by result.",
		}, []string{"result"}),
		ConnState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pinlink_connection_state",
			Help: "Connection state (0=disconnected 1=connecting 2=authenticating 3=connected).",
		}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinlink_frames_sent_total",
			Help: "Frames written by command.",
		}, []string{"cmd"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinlink_frames_received_total",
			Help: "Frames decoded by command.",
		}, []string{"cmd"}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinlink_bytes_sent_total",
			Help: "Total bytes written to the server.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinlink_bytes_received_total",
			Help: "Total bytes read from the server.",
		}),
		DispatchIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinlink_dispatch_ignored_total",
			Help: "Inbound frames ignored by reason.",
		}, []string{"reason"}),
		RelayDatagrams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinlink_relay_datagrams_total",
			Help: "UDP relay datagrams by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.ConnectTotal, m.ReconnectTotal, m.AuthTotal, m.ConnState,
		m.FramesSent, m.FramesReceived, m.BytesSent, m.BytesReceived,
		m.DispatchIgnored, m.RelayDatagrams,
	)
	return m
}
