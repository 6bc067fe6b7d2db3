// Package metrics holds the domain Prometheus collectors. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"certdocs/internal/model"
)

type Metrics struct {
	documentsCreated    *prometheus.CounterVec
	transitions         *prometheus.CounterVec
	numberingRetries    prometheus.Counter
	attachmentsUploaded *prometheus.CounterVec
	attachmentBytes     prometheus.Histogram
	auditEntries        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		documentsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certdocs_documents_created_total",
				Help: "Documents created, by branch code.",
			},
			[]string{"branch"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certdocs_document_transitions_total",
				Help: "Committed document status transitions.",
			},
			[]string{"from", "to"},
		),
		numberingRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "certdocs_document_number_retries_total",
			Help: "Document creations retried after a numbering conflict.",
		}),
		attachmentsUploaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certdocs_attachments_uploaded_total",
				Help: "Attachments stored, by kind.",
			},
			[]string{"kind"},
		),
		attachmentBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "certdocs_attachment_size_bytes",
			Help:    "Size of accepted attachments.",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
		}),
		auditEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certdocs_audit_entries_total",
				Help: "Audit entries appended, by action.",
			},
			[]string{"action"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.documentsCreated, m.transitions, m.numberingRetries,
		m.attachmentsUploaded, m.attachmentBytes, m.auditEntries,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) DocumentCreated(branchCode string) {
	if m == nil {
		return
	}
	m.documentsCreated.WithLabelValues(branchCode).Inc()
}

func (m *Metrics) Transition(from, to model.Status) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) NumberingRetry() {
	if m == nil {
		return
	}
	m.numberingRetries.Inc()
}

func (m *Metrics) AttachmentUploaded(kind model.AttachmentKind, size int64) {
	if m == nil {
		return
	}
	m.attachmentsUploaded.WithLabelValues(string(kind)).Inc()
	m.attachmentBytes.Observe(float64(size))
}

func (m *Metrics) AuditRecorded(action model.AuditAction) {
	if m == nil {
		return
	}
	m.auditEntries.WithLabelValues(string(action)).Inc()
}
