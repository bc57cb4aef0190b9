package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(serialsInsertedTotal, serialsSkippedTotal, serialRedeemTotal) }

var (
	serialsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "serial_codes_inserted_total",
			Help: "Activation codes written to serial_numbers.",
		},
	)

	serialsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "serial_codes_skipped_total",
			Help: "Activation codes skipped on insert because they already existed.",
		},
	)

	serialRedeemTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serial_redeem_total",
			Help: "Redemption attempts by result.",
		},
		[]string{"result"}, // 'ok', 'not_found', 'already_used', 'error'
	)
)

func AddInserted(inserted, skipped int) {
	serialsInsertedTotal.Add(float64(inserted))
	if skipped > 0 {
		serialsSkippedTotal.Add(float64(skipped))
	}
}

func IncRedeem(result string) {
	serialRedeemTotal.WithLabelValues(norm(result)).Inc()
}
