package testmetrics

import (
	"sync"
	"time"
)

// Statter records every metric call so tests can assert on emission.
type Statter struct {
	lock                *sync.RWMutex
	incCalls            []IncCall
	gaugeCalls          []GaugeCall
	timingDurationCalls []TimingDurationCall
}

type IncCall struct {
	Metric string
	Value  int64
}

type GaugeCall struct {
	Metric string
	Value  int64
}

type TimingDurationCall struct {
	Metric string
	Value  time.Duration
}

func NewStatter() *Statter {
	return &Statter{
		lock: &sync.RWMutex{},
	}
}

func (s *Statter) Inc(metric string, value int64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.incCalls = append(s.incCalls, IncCall{Metric: metric, Value: value})
}

func (s *Statter) Gauge(metric string, value int64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.gaugeCalls = append(s.gaugeCalls, GaugeCall{Metric: metric, Value: value})
}

func (s *Statter) TimingDuration(metric string, value time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.timingDurationCalls = append(s.timingDurationCalls, TimingDurationCall{Metric: metric, Value: value})
}

func (s *Statter) IncCalls() []IncCall {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.incCalls
}

func (s *Statter) GaugeCalls() []GaugeCall {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.gaugeCalls
}

func (s *Statter) TimingDurationCalls() []TimingDurationCall {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.timingDurationCalls
}

// IncTotal sums all Inc calls for a metric.
func (s *Statter) IncTotal(metric string) int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var total int64
	for _, call := range s.incCalls {
		if call.Metric == metric {
			total += call.Value
		}
	}
	return total
}
