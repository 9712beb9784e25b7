// Per-region image metrics shown alongside the live view
package metrics

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// Metric defines the interface for single-image metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(img gocv.Mat) (float64, error)
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}

	e.RegisterDefaultMetrics()

	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register(NameSharpness, NewSharpness())
	e.Register(NameBrightness, NewBrightness())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names in sorted order
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, img gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}

	return metric.Calculate(img)
}

// Readout is the compact focus summary for one region
type Readout struct {
	Sharpness  float64
	Brightness float64
	Valid      bool
}

// Label formats the readout for an overlay label
func (r Readout) Label() string {
	if !r.Valid {
		return ""
	}
	return fmt.Sprintf("f:%.0f b:%.0f", r.Sharpness, r.Brightness)
}

// Readout evaluates the sharpness and brightness metrics for img
func (e *Evaluator) Readout(img gocv.Mat) Readout {
	sharp, err := e.Calculate(NameSharpness, img)
	if err != nil {
		return Readout{}
	}
	bright, err := e.Calculate(NameBrightness, img)
	if err != nil {
		return Readout{}
	}
	return Readout{Sharpness: sharp, Brightness: bright, Valid: true}
}
