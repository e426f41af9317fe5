package progress

import "time"

// Sampler estimates throughput from a bounded history of per-frame completion
// deltas. It is owned by a single monitor goroutine and is not safe for
// concurrent use.
type Sampler struct {
	samples []int64
	head    int
	count   int
	sum     int64
	frame   time.Duration
}

// NewSampler creates a sampler that keeps at most capacity deltas, each
// representing one frame of the given duration.
func NewSampler(capacity int, frame time.Duration) *Sampler {
	if capacity <= 0 {
		capacity = 1
	}
	return &Sampler{
		samples: make([]int64, capacity),
		frame:   frame,
	}
}

// Record appends the number of items completed during the last frame,
// evicting the oldest sample once the history is full.
func (s *Sampler) Record(delta int64) {
	if s.count == len(s.samples) {
		s.sum -= s.samples[s.head]
		s.samples[s.head] = delta
		s.head = (s.head + 1) % len(s.samples)
	} else {
		s.samples[(s.head+s.count)%len(s.samples)] = delta
		s.count++
	}
	s.sum += delta
}

// SecondsPerItem returns the moving-average time per completed item over the
// recorded window. When nothing completed in the window it returns the frame
// duration.
func (s *Sampler) SecondsPerItem() float64 {
	if s.sum <= 0 {
		return s.frame.Seconds()
	}
	return float64(s.count) * s.frame.Seconds() / float64(s.sum)
}

// Len reports how many samples are currently held.
func (s *Sampler) Len() int { return s.count }

// Samples returns a copy of the history, oldest first.
func (s *Sampler) Samples() []int64 {
	out := make([]int64, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.samples[(s.head+i)%len(s.samples)]
	}
	return out
}
