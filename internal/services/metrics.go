package services

import (
	"charitylottery/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const MetricNameSpace = "charity_lottery"

var (
	currentDraw = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "current_draw_number",
			Help:      "number of the draw tickets are currently bound to",
		},
	)
	prizePoolBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "prize_pool_balance",
			Help:      "prize pool balance in base units",
		},
	)
	ticketsSold = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "tickets_sold_total",
			Help:      "tickets bought",
		},
	)
	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "settlements_total",
			Help:      "tickets checked, by outcome",
		},
		[]string{"outcome"},
	)
	payouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "payouts_total",
			Help:      "base units paid to winners",
		},
	)
)

func init() {
	prometheus.MustRegister(
		currentDraw,
		prizePoolBalance,
		ticketsSold,
		settlements,
		payouts,
	)
}

func metricDraw(recorder models.DrawRecorder) {
	currentDraw.Set(float64(recorder.DrawNumber))
}

func metricPool(pool models.PrizePool) {
	prizePoolBalance.Set(float64(pool.TotalPrize))
}

func metricTicketSold(pool models.PrizePool) {
	ticketsSold.Inc()
	metricPool(pool)
}

func metricSettlement(outcome models.Outcome) {
	label := "none"
	switch {
	case outcome.Jackpot:
		label = "jackpot"
	case outcome.Payout > 0:
		label = "win"
	}
	settlements.WithLabelValues(label).Inc()
	payouts.Add(float64(outcome.Payout))
	prizePoolBalance.Set(float64(outcome.PoolAfter))
}
