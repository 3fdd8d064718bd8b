// Package metrics provides a lightweight embedded-metrics-style emitter for
// recording per-request timing and outcome counts without depending on an
// external metrics service. Metrics are written as structured JSON to
// stdout, one flush per line, so any log shipper can pick them up.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Units for recorded metric values.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// metricDef holds the name and unit for a single metric.
type metricDef struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// directive is the metadata block describing namespace, dimensions, and
// metric definitions for a single flush.
type directive struct {
	Timestamp  int64       `json:"timestamp"`
	Namespace  string      `json:"namespace"`
	Dimensions []string    `json:"dimensions"`
	Metrics    []metricDef `json:"metrics"`
}

// Recorder accumulates dimensions, metrics, and properties for a single
// flush. It is NOT safe for concurrent use from multiple goroutines; create
// one per request/operation.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]interface{}
	properties map[string]interface{}
}

// New creates a new Recorder under the given namespace (e.g.
// "imagealt.orchestrator").
func New(namespace string) *Recorder {
	return &Recorder{
		namespace:  namespace,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]interface{}),
		properties: make(map[string]interface{}),
	}
}

// Dimension adds a dimension key-value pair (e.g. "DescriberStrategy",
// "Outcome").
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named metric value with a unit. Use the Unit*
// constants (UnitMilliseconds, UnitCount, UnitBytes, UnitNone).
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count is a convenience for recording a count metric (value = 1).
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a non-metric field to the flushed document. Properties are
// searchable in log aggregation but do not themselves become metrics.
func (r *Recorder) Property(key string, value interface{}) *Recorder {
	r.properties[key] = value
	return r
}

// Flush serializes the recorded document as a single JSON line to stdout.
// After flushing, the Recorder should not be reused.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return
	}

	doc := make(map[string]interface{})

	metricDefs := make([]metricDef, 0, len(r.metrics))
	for _, m := range r.metrics {
		metricDefs = append(metricDefs, m)
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}

	doc["_metrics"] = directive{
		Timestamp:  time.Now().UnixMilli(),
		Namespace:  r.namespace,
		Dimensions: dimKeys,
		Metrics:    metricDefs,
	}

	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	for k, v := range r.properties {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "metrics: failed to marshal: %v\n", err)
		return
	}

	fmt.Fprintln(os.Stdout, string(data))
}
