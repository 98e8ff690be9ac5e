// Package indicator provides streaming statistics consumed by strategies.
// Indicator math is floating point; exactness lives in the cache and the
// execution layer, not here.
package indicator

import "fmt"

// SMA is a simple moving average over the last period inputs.
// A fixed ring buffer keeps updates allocation-free.
type SMA struct {
	period int
	values []float64
	head   int
	count  int
	sum    float64
}

// NewSMA creates a simple moving average with the given period.
func NewSMA(period int) *SMA {
	if period <= 0 {
		panic(fmt.Sprintf("sma: period must be positive, got %d", period))
	}
	return &SMA{period: period, values: make([]float64, period)}
}

// Period returns the configured window length.
func (s *SMA) Period() int { return s.period }

// Count returns the number of inputs received, capped at the period.
func (s *SMA) Count() int { return s.count }

// Initialized reports whether enough samples have arrived for the value
// to cover a full window.
func (s *SMA) Initialized() bool { return s.count >= s.period }

// Update pushes the next input value.
func (s *SMA) Update(value float64) {
	if s.count == s.period {
		s.sum -= s.values[s.head]
	}
	s.values[s.head] = value
	s.sum += value
	s.head = (s.head + 1) % s.period
	if s.count < s.period {
		s.count++
	}
}

// Value returns the current average over the inputs received so far,
// zero before any input.
func (s *SMA) Value() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

// Reset returns the indicator to its uninitialized state.
func (s *SMA) Reset() {
	for i := range s.values {
		s.values[i] = 0
	}
	s.head = 0
	s.count = 0
	s.sum = 0
}

func (s *SMA) String() string {
	return fmt.Sprintf("SMA(%d)", s.period)
}
