package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - счётчики решающего ядра для Prometheus.
//
// Методы безопасны для nil-получателя: движок в юнит-тестах
// работает без метрик.
type Metrics struct {
	cyclesTotal     prometheus.Counter
	cyclesSkipped   prometheus.Counter
	decisionsTotal  *prometheus.CounterVec
	ordersSubmitted *prometheus.CounterVec
	ordersRejected  *prometheus.CounterVec
	orderStatus     *prometheus.CounterVec
	duplicatesTotal prometheus.Counter
	unknownTotal    prometheus.Counter
	signalsTotal    *prometheus.CounterVec

	dailyPnl      prometheus.Gauge
	openPositions prometheus.Gauge
}

// NewMetrics регистрирует метрики в переданном registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "polybet_cycles_total",
			Help: "Количество завершённых циклов оценки",
		}),
		cyclesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "polybet_cycles_skipped_total",
			Help: "Количество тиков, пропущенных из-за незавершённого цикла",
		}),
		decisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polybet_risk_decisions_total",
			Help: "Решения риск-движка по причинам",
		}, []string{"reason"}),
		ordersSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polybet_orders_submitted_total",
			Help: "Отправленные ордера по стратегиям",
		}, []string{"strategy"}),
		ordersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polybet_orders_rejected_total",
			Help: "Отклонённые/провалившиеся отправки по причинам",
		}, []string{"reason"}),
		orderStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polybet_order_status_transitions_total",
			Help: "Переходы статусов ордеров",
		}, []string{"status"}),
		duplicatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "polybet_duplicate_signals_total",
			Help: "Сигналы, подавленные идемпотентным ключом",
		}),
		unknownTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "polybet_orders_unknown_total",
			Help: "Ордера, ушедшие в unknown по таймауту",
		}),
		signalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polybet_signals_total",
			Help: "Сигналы стратегий",
		}, []string{"strategy"}),
		dailyPnl: factory.NewGauge(prometheus.GaugeOpts{
			Name: "polybet_daily_pnl",
			Help: "Дневной PnL по fills",
		}),
		openPositions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "polybet_open_positions",
			Help: "Количество открытых позиций",
		}),
	}
}

func (m *Metrics) IncCycle() {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
}

func (m *Metrics) IncCycleSkipped() {
	if m == nil {
		return
	}
	m.cyclesSkipped.Inc()
}

func (m *Metrics) ObserveDecision(reason string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncOrderSubmitted(strategy string) {
	if m == nil {
		return
	}
	m.ordersSubmitted.WithLabelValues(strategy).Inc()
}

func (m *Metrics) IncOrderRejected(reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveOrderStatus(status string) {
	if m == nil {
		return
	}
	m.orderStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.duplicatesTotal.Inc()
}

func (m *Metrics) IncOrderUnknown() {
	if m == nil {
		return
	}
	m.unknownTotal.Inc()
}

func (m *Metrics) IncSignals(strategy string, count int) {
	if m == nil {
		return
	}
	m.signalsTotal.WithLabelValues(strategy).Add(float64(count))
}

func (m *Metrics) SetDailyPnl(pnl float64) {
	if m == nil {
		return
	}
	m.dailyPnl.Set(pnl)
}

func (m *Metrics) SetOpenPositions(count int) {
	if m == nil {
		return
	}
	m.openPositions.Set(float64(count))
}
