// Package metrics - счетчики жизненного цикла документов и закупок для Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics регистрируется один раз на процесс; nil безопасен и ничего не записывает
type Metrics struct {
	DocumentsCreated     *prometheus.CounterVec
	VersionsPromoted     prometheus.Counter
	BiddingStatusChanges *prometheus.CounterVec
	AttachmentsPublished prometheus.Counter
	Rejections           *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		DocumentsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transparencia_documents_created_total",
			Help: "Documents created by category",
		}, []string{"category"}),

		VersionsPromoted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transparencia_document_versions_promoted_total",
			Help: "Document versions promoted to current",
		}),

		BiddingStatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transparencia_bidding_status_changes_total",
			Help: "Bidding status transitions by target status",
		}, []string{"status"}),

		AttachmentsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transparencia_bidding_documents_published_total",
			Help: "Bidding attachments published",
		}),

		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transparencia_rejections_total",
			Help: "Rejected write operations by failure kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncDocumentCreated(category string) {
	if m != nil {
		m.DocumentsCreated.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) IncVersionPromoted() {
	if m != nil {
		m.VersionsPromoted.Inc()
	}
}

func (m *Metrics) IncStatusChange(status string) {
	if m != nil {
		m.BiddingStatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncAttachmentPublished() {
	if m != nil {
		m.AttachmentsPublished.Inc()
	}
}

func (m *Metrics) IncRejection(kind string) {
	if m != nil {
		m.Rejections.WithLabelValues(kind).Inc()
	}
}
