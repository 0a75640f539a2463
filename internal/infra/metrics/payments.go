package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		webhookRejections,
		invoiceLatencySec,
		trialSignups,
		couponChecks,
		mailSent,
	)
}

var (
	// status: created|confirmed|duplicate|failed
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment lifecycle events by status.",
		},
		[]string{"system", "status"},
	)

	// reason: remote_ip|not_found|already_completed|invalid_id|missing_sign|invalid_account|invalid_hash|bad_payload
	webhookRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_rejections_total",
			Help: "Rejected gateway confirmation callbacks by bounded reason.",
		},
		[]string{"reason"},
	)

	invoiceLatencySec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_invoice_duration_seconds",
			Help:    "Duration of outbound invoice-creation requests in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"gateway", "success"},
	)

	trialSignups = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trial_signups_total",
			Help: "Count of accepted trial signups.",
		},
	)

	// result: ok|invalid|empty
	couponChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_checks_total",
			Help: "Coupon validations by result.",
		},
		[]string{"result"},
	)

	// status: sent|error
	mailSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_sent_total",
			Help: "Transactional mail dispatch attempts by kind and status.",
		},
		[]string{"kind", "status"},
	)
)

func IncPayment(system, status string) {
	paymentsTotal.WithLabelValues(norm(system), norm(status)).Inc()
}

func IncWebhookRejection(reason string) {
	webhookRejections.WithLabelValues(norm(reason)).Inc()
}

func ObserveInvoiceLatency(gateway string, seconds float64, success bool) {
	lbl := "false"
	if success {
		lbl = "true"
	}
	invoiceLatencySec.WithLabelValues(norm(gateway), lbl).Observe(seconds)
}

func IncTrialSignup() { trialSignups.Inc() }

func IncCouponCheck(result string) {
	couponChecks.WithLabelValues(norm(result)).Inc()
}

func IncMailSent(kind string, ok bool) {
	status := "error"
	if ok {
		status = "sent"
	}
	mailSent.WithLabelValues(norm(kind), status).Inc()
}
