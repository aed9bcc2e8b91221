package statsd

// cell is one aggregation state. Its kind never changes after creation;
// only the fields relevant to that kind are ever populated.
type cell struct {
	kind Kind

	// Counter
	residual float64
	total    int64

	// Timer
	latency LatencyHistogram

	// Gauge
	value float64

	// Set
	members map[string]struct{}

	updates uint64
}

func newCell(kind Kind) *cell {
	return &cell{kind: kind}
}
