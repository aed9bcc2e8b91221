package statsd

import (
	"fmt"
	"math"
	"time"
)

// applyUpdate applies one parsed record to c per the per-kind update rules
// of spec.md §4.3. Callers must hold the store's lock.
func applyUpdate(c *cell, r Record) {
	switch r.Kind {
	case Counter:
		c.residual += r.Value / r.Rate
	case Timer:
		if c.latency == nil {
			c.latency = NewLatencyHistogram()
		}
		ms := r.Value / r.Rate
		c.latency.Add(time.Duration(ms * float64(time.Millisecond)))
	case Gauge:
		if r.GaugeDelta {
			c.value += r.Value
		} else {
			c.value = r.Value
		}
	case Set:
		if c.members == nil {
			c.members = make(map[string]struct{})
		}
		c.members[r.Member] = struct{}{}
	}
	c.updates++
}

// flushCell emits the measurements for one cell at flush time, per the
// per-kind flush rules of spec.md §4.3. It does not reset the cell; the
// caller resets separately so the idle-deletion check in DrainForFlush can
// run first.
func flushCell(k Kind, name string, c *cell, opts FlushOptions, now time.Time, cb func(string, Measurement)) {
	switch k {
	case Counter:
		flushCounter(name, c, opts, now, cb)
	case Timer:
		flushTimer(name, c, opts, now, cb)
	case Gauge:
		cb(name, Measurement{
			Plugin: "statsd", Type: TypeGauge, TypeInstance: name,
			Values: []float64{c.value}, Time: now,
		})
	case Set:
		n := float64(len(c.members))
		cb(name, Measurement{
			Plugin: "statsd", Type: TypeObjects, TypeInstance: name,
			Values: []float64{n}, Time: now,
		})
	}
}

func flushCounter(name string, c *cell, opts FlushOptions, now time.Time, cb func(string, Measurement)) {
	delta := math.RoundToEven(c.residual)

	if opts.CounterSum {
		cb(name, Measurement{
			Plugin: "statsd", Type: TypeCount, TypeInstance: name,
			Values: []float64{delta}, Time: now,
		})
	}

	if opts.CounterGauge {
		cb(name, Measurement{
			Plugin: "statsd", Type: TypeGauge, TypeInstance: name,
			Values: []float64{c.residual}, Time: now,
		})
	}

	c.residual -= delta
	c.total += int64(delta)

	cb(name, Measurement{
		Plugin: "statsd", Type: TypeDerive, TypeInstance: name,
		Values: []float64{float64(c.total)}, Time: now,
	})
}

func flushTimer(name string, c *cell, opts FlushOptions, now time.Time, cb func(string, Measurement)) {
	haveEvents := c.updates > 0

	// valueOrNaN only evaluates get() when there were events, so a never-
	// created (nil) histogram is never dereferenced.
	valueOrNaN := func(get func() time.Duration) float64 {
		if !haveEvents {
			return math.NaN()
		}
		return float64(get()) / float64(time.Millisecond)
	}

	cb(name, Measurement{
		Plugin: "statsd", Type: TypeLatency, TypeInstance: name + "-average",
		Values: []float64{valueOrNaN(func() time.Duration { return c.latency.Average() })}, Time: now,
	})

	if opts.TimerLower {
		cb(name, Measurement{Plugin: "statsd", Type: TypeLatency, TypeInstance: name + "-lower", Values: []float64{valueOrNaN(func() time.Duration { return c.latency.Min() })}, Time: now})
	}
	if opts.TimerUpper {
		cb(name, Measurement{Plugin: "statsd", Type: TypeLatency, TypeInstance: name + "-upper", Values: []float64{valueOrNaN(func() time.Duration { return c.latency.Max() })}, Time: now})
	}
	if opts.TimerSum {
		cb(name, Measurement{Plugin: "statsd", Type: TypeLatency, TypeInstance: name + "-sum", Values: []float64{valueOrNaN(func() time.Duration { return c.latency.Sum() })}, Time: now})
	}
	for _, p := range opts.TimerPercentiles {
		p := p
		instance := fmt.Sprintf("%s-percentile-%.0f", name, p)
		cb(name, Measurement{Plugin: "statsd", Type: TypeLatency, TypeInstance: instance, Values: []float64{valueOrNaN(func() time.Duration { return c.latency.Percentile(p) })}, Time: now})
	}

	// -count is always numeric, even with zero events, and emitted as a
	// plain gauge rather than a latency value.
	if opts.TimerCount {
		var count float64
		if haveEvents {
			count = float64(c.latency.Count())
		}
		cb(name, Measurement{Plugin: "statsd", Type: TypeGauge, TypeInstance: name + "-count", Values: []float64{count}, Time: now})
	}
}

// resetCell clears per-interval state after a flush. Counter residual and
// total handling happens in flushCounter itself since the residual law
// (spec.md §8 property 2) needs the post-delta residual, not a zeroed one.
func resetCell(c *cell) {
	c.updates = 0
	switch c.kind {
	case Set:
		c.members = nil
	case Timer:
		if c.latency != nil {
			c.latency.Reset()
		}
	}
}
