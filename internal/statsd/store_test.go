package statsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_DistinctKindsAreDistinctCells(t *testing.T) {
	s := NewMetricStore()
	s.ApplyRecord(Record{Name: "x", Kind: Counter, Value: 1, Rate: 1})
	s.ApplyRecord(Record{Name: "x", Kind: Gauge, Value: 1, Rate: 1})
	assert.Equal(t, 2, s.Len())
}

func TestStore_DeletionDeferredUntilAfterIteration(t *testing.T) {
	s := NewMetricStore()
	s.ApplyRecord(Record{Name: "a", Kind: Counter, Value: 1, Rate: 1})
	s.ApplyRecord(Record{Name: "b", Kind: Counter, Value: 1, Rate: 1})

	// make a idle by clearing its update count; b keeps its update above.
	s.lookupOrCreate(Counter, "a").updates = 0

	seen := 0
	s.DrainForFlush(FlushOptions{DeleteCounters: true}, func(name string, m Measurement) {
		seen++
	})
	// exactly one of the two cells should have been emitted (b); a was
	// scheduled for deletion instead.
	assert.Equal(t, 1, seen)
	assert.Equal(t, 1, s.Len())
}
