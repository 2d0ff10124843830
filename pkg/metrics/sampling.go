package metrics

import (
	"math"
	"sync/atomic"
)

// SamplingObserver forwards roughly rate*N of N events to the inner sink.
// Rate 0 drops everything, rate 1 forwards everything. Sampling is
// deterministic (every k-th event) so bursts are thinned evenly.
type SamplingObserver struct {
	inner       Observer
	rate        float64
	sampleEvery uint64
	counter     uint64
}

func NewSamplingObserver(inner Observer, rate float64) *SamplingObserver {
	rate = math.Min(math.Max(rate, 0), 1)
	var every uint64
	switch rate {
	case 0:
		every = 0
	case 1:
		every = 1
	default:
		every = uint64(math.Round(1.0 / rate))
		if every == 0 {
			every = 1
		}
	}
	return &SamplingObserver{inner: inner, rate: rate, sampleEvery: every}
}

func (s *SamplingObserver) RecordEvent(ev MetricsEvent) {
	if s.rate == 0 {
		return
	}
	if s.sampleEvery <= 1 {
		s.inner.RecordEvent(ev)
		return
	}
	n := atomic.AddUint64(&s.counter, 1)
	if n%s.sampleEvery == 0 {
		s.inner.RecordEvent(ev)
	}
}
