// Package metrics wires certsign and certverify operations into
// Prometheus. The teacher's own metrics.go predates Prometheus and wires
// statsd instead (github.com/cactus/go-statsd-client), but the rest of
// the retrieval pack's boulder lineage (ca/ca.go's caMetrics,
// metrics/measured_http) standardizes on client_golang, and that's the
// shape this package follows: a set of CounterVecs registered once at
// construction, with nil-receiver methods so an unconfigured *Metrics is
// a safe no-op for callers that don't care to wire one up.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters shared between certsign and certverify
// operations, mirroring caMetrics' shape: one CounterVec per concern,
// each labelled rather than split into many single-purpose counters.
type Metrics struct {
	signatureCount   *prometheus.CounterVec
	signErrorCount   *prometheus.CounterVec
	certificateCount *prometheus.CounterVec
	verifyCount      *prometheus.CounterVec
	verifyErrorCount *prometheus.CounterVec
	lintErrorCount   *prometheus.CounterVec
}

// New registers and returns a Metrics bound to stats.
func New(stats prometheus.Registerer) *Metrics {
	signatureCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bercert_signatures_total",
		Help: "Number of objects signed, by kind",
	}, []string{"kind"})
	stats.MustRegister(signatureCount)

	signErrorCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bercert_sign_errors_total",
		Help: "Number of signing failures, by kind and error type",
	}, []string{"kind", "type"})
	stats.MustRegister(signErrorCount)

	certificateCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bercert_certificates_issued_total",
		Help: "Number of certificates issued, by whether they are self-signed",
	}, []string{"self_signed"})
	stats.MustRegister(certificateCount)

	verifyCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bercert_verifications_total",
		Help: "Number of CheckCertValidity calls, by verifier path and result",
	}, []string{"path", "result"})
	stats.MustRegister(verifyCount)

	verifyErrorCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bercert_verify_errors_total",
		Help: "Number of verification failures, by verifier path and error kind",
	}, []string{"path", "type"})
	stats.MustRegister(verifyErrorCount)

	lintErrorCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bercert_lint_errors_total",
		Help: "Number of pre-publication zlint failures, by kind",
	}, []string{"kind"})
	stats.MustRegister(lintErrorCount)

	return &Metrics{
		signatureCount:   signatureCount,
		signErrorCount:   signErrorCount,
		certificateCount: certificateCount,
		verifyCount:      verifyCount,
		verifyErrorCount: verifyErrorCount,
		lintErrorCount:   lintErrorCount,
	}
}

// NoteSignature records a successful sign of the given kind.
func (m *Metrics) NoteSignature(kind string) {
	if m == nil {
		return
	}
	m.signatureCount.WithLabelValues(kind).Inc()
}

// NoteSignError records a signing failure, labelled by kind and a short
// error-type tag the caller chooses (e.g. "issuer-constraint", "hsm").
func (m *Metrics) NoteSignError(kind, errType string) {
	if m == nil {
		return
	}
	m.signErrorCount.WithLabelValues(kind, errType).Inc()
}

// NoteCertificateIssued records a successfully issued certificate.
func (m *Metrics) NoteCertificateIssued(selfSigned bool) {
	if m == nil {
		return
	}
	label := "false"
	if selfSigned {
		label = "true"
	}
	m.certificateCount.WithLabelValues(label).Inc()
}

// NoteVerification records the outcome of one CheckCertValidity call,
// labelled by the verifier path it dispatched to.
func (m *Metrics) NoteVerification(path string, err error) {
	if m == nil {
		return
	}
	result := "valid"
	if err != nil {
		result = "invalid"
	}
	m.verifyCount.WithLabelValues(path, result).Inc()
}

// NoteLintError records that a freshly signed certificate of the given
// kind failed pre-publication zlint linting, mirroring caMetrics'
// lintErrorCount counter (other_examples' boulder ca.go).
func (m *Metrics) NoteLintError(kind string) {
	if m == nil {
		return
	}
	m.lintErrorCount.WithLabelValues(kind).Inc()
}

// NoteVerifyError records a verification failure that stems from a
// malformed or unsupported request rather than a genuine validity
// failure (e.g. a missing collaborator), labelled by path and errType.
func (m *Metrics) NoteVerifyError(path, errType string) {
	if m == nil {
		return
	}
	m.verifyErrorCount.WithLabelValues(path, errType).Inc()
}
