package statsd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSampleHistogram(t *testing.T) {
	h := NewLatencyHistogram()
	h.Add(100 * time.Millisecond)
	h.Add(200 * time.Millisecond)
	h.Add(300 * time.Millisecond)

	assert.Equal(t, uint64(3), h.Count())
	assert.Equal(t, 100*time.Millisecond, h.Min())
	assert.Equal(t, 300*time.Millisecond, h.Max())
	assert.Equal(t, 200*time.Millisecond, h.Average())
	assert.Equal(t, 600*time.Millisecond, h.Sum())
	assert.Equal(t, 300*time.Millisecond, h.Percentile(90))

	h.Reset()
	assert.Equal(t, uint64(0), h.Count())
}
