package control

import (
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Filter types understood by NewFilter.
const (
	FilterNone          = ""
	FilterMovingAverage = "moving_average"
	FilterExponential   = "exponential"
)

// FilterConfig selects a filter for a measured signal. The zero value passes values through.
type FilterConfig struct {
	Type string `json:"type,omitempty"`
	// Size is the window of a moving average.
	Size int `json:"filter_size,omitempty"`
	// Alpha is the weight of the newest sample in an exponential filter, in (0, 1].
	Alpha float64 `json:"alpha,omitempty"`
}

// Validate ensures the filter can be built.
func (cfg FilterConfig) Validate() error {
	_, err := NewFilter(cfg)
	return err
}

// A Filter smooths a stream of samples. Next reports false until the filter has seen enough
// samples for its output to be meaningful.
type Filter interface {
	Next(x float64) (float64, bool)
	Reset()
}

// NewFilter builds the filter described by cfg.
func NewFilter(cfg FilterConfig) (Filter, error) {
	switch cfg.Type {
	case FilterNone:
		return passthroughFilter{}, nil
	case FilterMovingAverage:
		if cfg.Size < 1 {
			return nil, errors.Errorf("filter of type %s should have a positive filter_size, got %d", cfg.Type, cfg.Size)
		}
		return &movingAverageFilter{window: make([]float64, 0, cfg.Size), size: cfg.Size}, nil
	case FilterExponential:
		if !(cfg.Alpha > 0 && cfg.Alpha <= 1) {
			return nil, errors.Errorf("filter of type %s should have alpha in (0, 1], got %v", cfg.Type, cfg.Alpha)
		}
		return &exponentialFilter{alpha: cfg.Alpha}, nil
	default:
		return nil, errors.Errorf("unsupported filter type %q", cfg.Type)
	}
}

type passthroughFilter struct{}

func (passthroughFilter) Next(x float64) (float64, bool) { return x, true }

func (passthroughFilter) Reset() {}

type movingAverageFilter struct {
	mu     sync.Mutex
	window []float64
	size   int
	next   int
}

func (f *movingAverageFilter) Next(x float64) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.window) < f.size {
		f.window = append(f.window, x)
	} else {
		f.window[f.next] = x
		f.next = (f.next + 1) % f.size
	}
	return stat.Mean(f.window, nil), len(f.window) == f.size
}

func (f *movingAverageFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window = f.window[:0]
	f.next = 0
}

type exponentialFilter struct {
	mu     sync.Mutex
	alpha  float64
	y      float64
	primed bool
}

func (f *exponentialFilter) Next(x float64) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.primed {
		f.y = x
		f.primed = true
	} else {
		f.y += f.alpha * (x - f.y)
	}
	return f.y, true
}

func (f *exponentialFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primed = false
	f.y = 0
}
