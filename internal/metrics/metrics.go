package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters for the professional verification flow. The
// registry unavailability counter matters most operationally: while it is
// climbing, no new verifications can pass.
type Metrics struct {
	RegistryUnavailable  prometheus.Counter
	CodesIssued          prometheus.Counter
	CodesConfirmed       prometheus.Counter
	CodeConfirmFailures  *prometheus.CounterVec
	VerificationEmailErr prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RegistryUnavailable: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catlog_reference_registry_unavailable_total",
			Help: "Total number of reference registry lookups that failed closed",
		}),
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catlog_verification_codes_issued_total",
			Help: "Total number of verification codes issued",
		}),
		CodesConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catlog_verification_codes_confirmed_total",
			Help: "Total number of verification codes confirmed successfully",
		}),
		CodeConfirmFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catlog_verification_code_confirm_failures_total",
			Help: "Total number of failed code confirmations by reason",
		}, []string{"reason"}),
		VerificationEmailErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catlog_verification_email_failures_total",
			Help: "Total number of verification emails that could not be delivered",
		}),
	}
}

func (m *Metrics) IncRegistryUnavailable() {
	if m != nil {
		m.RegistryUnavailable.Inc()
	}
}

func (m *Metrics) IncCodesIssued() {
	if m != nil {
		m.CodesIssued.Inc()
	}
}

func (m *Metrics) IncCodesConfirmed() {
	if m != nil {
		m.CodesConfirmed.Inc()
	}
}

func (m *Metrics) IncConfirmFailure(reason string) {
	if m != nil {
		m.CodeConfirmFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncEmailFailure() {
	if m != nil {
		m.VerificationEmailErr.Inc()
	}
}
