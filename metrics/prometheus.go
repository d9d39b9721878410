package metrics

import (
	"github.com/illuscio-dev/xmlsource-go/source"
	"github.com/illuscio-dev/xmlsource-go/sourceerrors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/xerrors"
)

const (
	readsTotalName       = "xmlsource_reads_total"
	conversionsTotalName = "xmlsource_conversions_total"
	writesTotalName      = "xmlsource_writes_total"
	failuresTotalName    = "xmlsource_failures_total"

	readsTotalHelp       = "Number of sources read from message bodies, by requested target and produced representation."
	conversionsTotalHelp = "Number of sources converted from another source, by requested target and produced representation."
	writesTotalHelp      = "Number of sources written, by representation."
	failuresTotalHelp    = "Number of failed reads, conversions and writes, by operation and error kind."

	labelTarget         = "target"
	labelRepresentation = "representation"
	labelOperation      = "operation"
	labelKind           = "kind"

	// kind of failures that are not source errors, usually reader or writer failures.
	kindIO = "io"
)

// Collector counts conversions. It implements source.Recorder and
// prometheus.Collector.
type Collector struct {
	reads       *prometheus.CounterVec
	conversions *prometheus.CounterVec
	writes      *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewCollector creates the counters. Register the collector with a registry to expose
// them.
func NewCollector() *Collector {
	collector := &Collector{}

	collector.reads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: readsTotalName,
		Help: readsTotalHelp,
	}, []string{labelTarget, labelRepresentation})

	collector.conversions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: conversionsTotalName,
		Help: conversionsTotalHelp,
	}, []string{labelTarget, labelRepresentation})

	collector.writes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: writesTotalName,
		Help: writesTotalHelp,
	}, []string{labelRepresentation})

	collector.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: failuresTotalName,
		Help: failuresTotalHelp,
	}, []string{labelOperation, labelKind})

	return collector
}

// Describe implements prometheus.Collector.
func (collector *Collector) Describe(descs chan<- *prometheus.Desc) {
	collector.reads.Describe(descs)
	collector.conversions.Describe(descs)
	collector.writes.Describe(descs)
	collector.failures.Describe(descs)
}

// Collect implements prometheus.Collector.
func (collector *Collector) Collect(metrics chan<- prometheus.Metric) {
	collector.reads.Collect(metrics)
	collector.conversions.Collect(metrics)
	collector.writes.Collect(metrics)
	collector.failures.Collect(metrics)
}

func (collector *Collector) ObserveRead(target source.Target, produced source.Representation) {
	collector.reads.WithLabelValues(target.String(), produced.String()).Inc()
}

func (collector *Collector) ObserveConvert(target source.Target, produced source.Representation) {
	collector.conversions.WithLabelValues(target.String(), produced.String()).Inc()
}

func (collector *Collector) ObserveWrite(written source.Representation) {
	collector.writes.WithLabelValues(written.String()).Inc()
}

func (collector *Collector) ObserveFailure(operation string, err error) {
	collector.failures.WithLabelValues(operation, failureKind(err)).Inc()
}

// failureKind names the source error type of err, or "io" for anything else.
func failureKind(err error) string {
	var sourceErr *sourceerrors.SourceError
	if xerrors.As(err, &sourceErr) {
		return sourceErr.Name()
	}
	return kindIO
}
