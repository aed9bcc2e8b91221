package statsd

// Record is one parsed StatsD update, ready for application to the
// MetricStore.
type Record struct {
	Name  string
	Kind  Kind
	Value float64
	// Rate is the client-side sample rate, already validated to be in
	// (0, 1]. Defaults to 1.0 when the wire record carried none.
	Rate float64
	// GaugeDelta is set when Kind == Gauge and the wire value carried an
	// explicit leading '+' or '-', meaning the value is a relative
	// adjustment rather than an absolute set.
	GaugeDelta bool
	// Member holds the set member string when Kind == Set; Value is
	// unused in that case since set members are arbitrary strings, not
	// decimal values.
	Member string
}
