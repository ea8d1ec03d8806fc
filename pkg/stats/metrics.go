package stats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus metrics of the daemon. Every method is a no-op
// on a nil receiver so that services can be built without metrics.
type Metrics struct {
	Registry             *prometheus.Registry
	NetworkSwitches      *prometheus.CounterVec
	SelectedNetwork      *prometheus.GaugeVec
	NetworkUsers         prometheus.Gauge
	ClockOffset          prometheus.Gauge
	Subscriptions        *prometheus.GaugeVec
	Polls                *prometheus.CounterVec
	TransactionsFound    *prometheus.CounterVec
	PendingMessages      prometheus.Gauge
	SettledMessages      *prometheus.CounterVec
	EndpointSelections   *prometheus.CounterVec
	NotificationFailures prometheus.Counter
}

func (m *Metrics) IncNetworkSwitch(group, result string) {
	if m == nil {
		return
	}
	m.NetworkSwitches.WithLabelValues(group, result).Inc()
}

func (m *Metrics) SetSelectedNetwork(id int, group string) {
	if m == nil {
		return
	}
	m.SelectedNetwork.Reset()
	m.SelectedNetwork.WithLabelValues(strconv.Itoa(id), group).Set(1)
}

func (m *Metrics) SetNetworkUsers(count int) {
	if m == nil {
		return
	}
	m.NetworkUsers.Set(float64(count))
}

func (m *Metrics) SetClockOffset(offsetMs int64) {
	if m == nil {
		return
	}
	m.ClockOffset.Set(float64(offsetMs))
}

func (m *Metrics) SetSubscriptions(kind string, count int) {
	if m == nil {
		return
	}
	m.Subscriptions.WithLabelValues(kind).Set(float64(count))
}

func (m *Metrics) IncPolls(kind, result string) {
	if m == nil {
		return
	}
	m.Polls.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) AddTransactionsFound(kind, batchType string, count int) {
	if m == nil {
		return
	}
	m.TransactionsFound.WithLabelValues(kind, batchType).Add(float64(count))
}

func (m *Metrics) SetPendingMessages(count int) {
	if m == nil {
		return
	}
	m.PendingMessages.Set(float64(count))
}

func (m *Metrics) IncSettledMessages(result string) {
	if m == nil {
		return
	}
	m.SettledMessages.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEndpointSelections(endpoint string) {
	if m == nil {
		return
	}
	m.EndpointSelections.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncNotificationFailures() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registerer := promauto.With(registry)
	return &Metrics{
		Registry: registry,
		NetworkSwitches: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "evrwallet_network_switches_total",
			Help: "The total number of network switch attempts",
		}, []string{"group", "result"}),
		SelectedNetwork: registerer.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evrwallet_selected_network",
			Help: "The network currently connected",
		}, []string{"id", "group"}),
		NetworkUsers: registerer.NewGauge(prometheus.GaugeOpts{
			Name: "evrwallet_network_users",
			Help: "The number of operations currently using the connection",
		}),
		ClockOffset: registerer.NewGauge(prometheus.GaugeOpts{
			Name: "evrwallet_clock_offset_milliseconds",
			Help: "The offset between the server and the local clock",
		}),
		Subscriptions: registerer.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evrwallet_subscriptions",
			Help: "The number of live subscriptions",
		}, []string{"kind"}),
		Polls: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "evrwallet_polls_total",
			Help: "The total number of subscription polls",
		}, []string{"kind", "result"}),
		TransactionsFound: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "evrwallet_transactions_found_total",
			Help: "The total number of transactions found by subscriptions",
		}, []string{"kind", "batch_type"}),
		PendingMessages: registerer.NewGauge(prometheus.GaugeOpts{
			Name: "evrwallet_pending_messages",
			Help: "The number of sent messages waiting for their transaction",
		}),
		SettledMessages: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "evrwallet_settled_messages_total",
			Help: "The total number of sent messages settled",
		}, []string{"result"}),
		EndpointSelections: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "evrwallet_gql_endpoint_selections_total",
			Help: "The total number of times an endpoint was selected",
		}, []string{"endpoint"}),
		NotificationFailures: registerer.NewCounter(prometheus.CounterOpts{
			Name: "evrwallet_notification_failures_total",
			Help: "The total number of notifications that failed to be delivered",
		}),
	}
}
