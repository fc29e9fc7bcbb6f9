package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_uploads_accepted_total",
			Help: "Total number of uploads accepted for ingestion",
		},
	)
	IngestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_failures_total",
			Help: "Total number of failed ingests by reason",
		},
		[]string{"reason"},
	)
	VariantFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_variant_encode_failures_total",
			Help: "Total number of per-variant encode failures",
		},
		[]string{"variant"},
	)
	ManifestsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_manifests_published_total",
			Help: "Total number of master manifests published to the content store",
		},
	)
	BlobsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_blobs_published_total",
			Help: "Total number of blobs written to the content store",
		},
	)
	FilesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_files_served_total",
			Help: "Total number of files served by kind (playlist, segment, content)",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(UploadsAccepted)
	prometheus.MustRegister(IngestFailures)
	prometheus.MustRegister(VariantFailures)
	prometheus.MustRegister(ManifestsPublished)
	prometheus.MustRegister(BlobsPublished)
	prometheus.MustRegister(FilesServed)
}
