// Package hysteresis debounces noisy per-frame detections into a
// "present for N consecutive frames" signal per label.
package hysteresis

import "github.com/teslashibe/go-disktray/pkg/detection"

// Bank holds one consecutive-presence counter per canonical label.
// Counters only ever step up by one or drop to zero.
type Bank struct {
	labels   detection.LabelSet
	counters []int
}

// NewBank creates a bank with every counter at zero
func NewBank(labels detection.LabelSet) *Bank {
	return &Bank{
		labels:   labels,
		counters: make([]int, labels.Len()),
	}
}

// Update folds one frame into the bank. A label seen at least once is
// incremented, every other label is zeroed. An empty frame clears the
// whole bank.
func (b *Bank) Update(set detection.Set) {
	if set.Empty() {
		b.Reset()
		return
	}
	present := make([]bool, len(b.counters))
	for _, d := range set {
		if d.Label >= 0 && d.Label < len(present) {
			present[d.Label] = true
		}
	}
	for i, seen := range present {
		if seen {
			b.counters[i]++
		} else {
			b.counters[i] = 0
		}
	}
}

// Reset zeroes every counter
func (b *Bank) Reset() {
	for i := range b.counters {
		b.counters[i] = 0
	}
}

// Count returns the counter for a canonical label index
func (b *Bank) Count(label int) int {
	if label < 0 || label >= len(b.counters) {
		return 0
	}
	return b.counters[label]
}

// CountOf returns the counter for a label name; unknown names read 0
func (b *Bank) CountOf(name string) int {
	i, ok := b.labels.Index(name)
	if !ok {
		return 0
	}
	return b.counters[i]
}

// Reached reports whether label has been present for at least n frames
func (b *Bank) Reached(label, n int) bool {
	return b.Count(label) >= n
}

// Clone returns an independent copy, so a frame can be evaluated before
// its effects are committed
func (b *Bank) Clone() *Bank {
	c := &Bank{labels: b.labels, counters: make([]int, len(b.counters))}
	copy(c.counters, b.counters)
	return c
}

// Snapshot returns the counters keyed by label name
func (b *Bank) Snapshot() map[string]int {
	out := make(map[string]int, len(b.counters))
	for i, name := range b.labels.Names() {
		out[name] = b.counters[i]
	}
	return out
}
