package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal         = "pyprune.files.total"
	metricUnusedImportsTotal = "pyprune.imports.unused.total"
	metricLinesRemovedTotal  = "pyprune.lines.removed.total"
	metricFileDuration       = "pyprune.file.duration.seconds"

	attrStatus = "status"
	attrDryRun = "dry_run"
)

// durationBucketBoundaries covers 1ms to 10s for single-file runs.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// PruneMetrics holds the OTel instruments for file pruning.
type PruneMetrics struct {
	filesTotal    metric.Int64Counter
	unusedTotal   metric.Int64Counter
	removedTotal  metric.Int64Counter
	fileDurations metric.Float64Histogram
}

// FileOutcome is what one processed file contributes to the metrics.
type FileOutcome struct {
	Status       string
	Unused       int
	LinesRemoved int
	DryRun       bool
	Duration     time.Duration
}

// NewPruneMetrics creates prune metric instruments from the given meter.
func NewPruneMetrics(mt metric.Meter) (*PruneMetrics, error) {
	filesTotal, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Total number of processed files"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	unusedTotal, err := mt.Int64Counter(metricUnusedImportsTotal,
		metric.WithDescription("Total number of unused import bindings found"),
		metric.WithUnit("{import}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricUnusedImportsTotal, err)
	}

	removedTotal, err := mt.Int64Counter(metricLinesRemovedTotal,
		metric.WithDescription("Total number of source lines removed"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLinesRemovedTotal, err)
	}

	fileDurations, err := mt.Float64Histogram(metricFileDuration,
		metric.WithDescription("File processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFileDuration, err)
	}

	return &PruneMetrics{
		filesTotal:    filesTotal,
		unusedTotal:   unusedTotal,
		removedTotal:  removedTotal,
		fileDurations: fileDurations,
	}, nil
}

// RecordFile records one processed file. A nil receiver is a no-op.
func (pm *PruneMetrics) RecordFile(ctx context.Context, outcome FileOutcome) {
	if pm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrStatus, outcome.Status),
		attribute.Bool(attrDryRun, outcome.DryRun),
	)

	pm.filesTotal.Add(ctx, 1, attrs)
	pm.fileDurations.Record(ctx, outcome.Duration.Seconds(), attrs)

	if outcome.Unused > 0 {
		pm.unusedTotal.Add(ctx, int64(outcome.Unused), attrs)
	}

	if outcome.LinesRemoved > 0 {
		pm.removedTotal.Add(ctx, int64(outcome.LinesRemoved))
	}
}
