package telemetry

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// HistogramBucket is one OTLP-shaped cumulative bucket: Count is the
// number of observations less than or equal to UpperBound, counted
// from the start of the series, matching both Prometheus's and OTLP's
// cumulative-histogram convention (spec.md §8 "histogram cumulative
// bucket semantics").
type HistogramBucket struct {
	UpperBound float64 `json:"upper_bound"`
	Count      uint64  `json:"count"`
}

// HistogramSnapshot is one label-combination's exported data point.
type HistogramSnapshot struct {
	Labels  map[string]string `json:"labels"`
	Buckets []HistogramBucket `json:"buckets"`
	Sum     float64           `json:"sum"`
	Count   uint64            `json:"count"`
}

// ExportHistogram reads every observed series of the histogram named
// name and returns them as OTLP-shaped cumulative snapshots, sorted by
// bucket upper bound within each series.
func (e *Engine) ExportHistogram(name string) ([]HistogramSnapshot, error) {
	e.mu.Lock()
	hv, ok := e.histograms[name]
	e.mu.Unlock()
	if !ok {
		return nil, fulmenerrors.New(fulmenerrors.CodeDataInvalid, "histogram "+name+" has not been registered").
			WithContext("metric", name)
	}

	ch := make(chan prometheus.Metric, 64)
	go func() {
		hv.Collect(ch)
		close(ch)
	}()

	var snapshots []HistogramSnapshot
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			return nil, fulmenerrors.Wrap(fulmenerrors.CodeOperationFailed, "failed to read histogram metric", err)
		}
		labels := make(map[string]string, len(pb.Label))
		for _, lp := range pb.Label {
			labels[lp.GetName()] = lp.GetValue()
		}
		h := pb.GetHistogram()
		buckets := make([]HistogramBucket, 0, len(h.GetBucket()))
		for _, b := range h.GetBucket() {
			buckets = append(buckets, HistogramBucket{UpperBound: b.GetUpperBound(), Count: b.GetCumulativeCount()})
		}
		sort.Slice(buckets, func(i, j int) bool { return buckets[i].UpperBound < buckets[j].UpperBound })
		snapshots = append(snapshots, HistogramSnapshot{
			Labels:  labels,
			Buckets: buckets,
			Sum:     h.GetSampleSum(),
			Count:   h.GetSampleCount(),
		})
	}
	return snapshots, nil
}
