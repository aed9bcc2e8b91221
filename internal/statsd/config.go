package statsd

import "github.com/pkg/errors"

// Config holds the StatsD core's configuration options (spec.md §6). Field
// names mirror the canonical, case-insensitive directive names; decoding
// from TOML happens one layer up in internal/config.
type Config struct {
	Host string `toml:"host"`
	Port string `toml:"port"`

	DeleteCounters bool `toml:"delete_counters"`
	DeleteTimers   bool `toml:"delete_timers"`
	DeleteGauges   bool `toml:"delete_gauges"`
	DeleteSets     bool `toml:"delete_sets"`

	CounterSum   bool `toml:"counter_sum"`
	CounterGauge bool `toml:"counter_gauge"`

	TimerLower      bool      `toml:"timer_lower"`
	TimerUpper      bool      `toml:"timer_upper"`
	TimerSum        bool      `toml:"timer_sum"`
	TimerCount      bool      `toml:"timer_count"`
	TimerPercentile []float64 `toml:"timer_percentile"`
}

// DefaultPort is used when Config.Port is unset.
const DefaultPort = "8125"

// FlushOptions extracts the subset of Config the aggregator needs.
func (c Config) FlushOptions() FlushOptions {
	return FlushOptions{
		DeleteCounters:   c.DeleteCounters,
		DeleteTimers:     c.DeleteTimers,
		DeleteGauges:     c.DeleteGauges,
		DeleteSets:       c.DeleteSets,
		CounterSum:       c.CounterSum,
		CounterGauge:     c.CounterGauge,
		TimerLower:       c.TimerLower,
		TimerUpper:       c.TimerUpper,
		TimerSum:         c.TimerSum,
		TimerCount:       c.TimerCount,
		TimerPercentiles: c.TimerPercentile,
	}
}

// Validate rejects configuration that cannot start the core (spec.md §7,
// Config-range errors).
func (c Config) Validate() error {
	for _, p := range c.TimerPercentile {
		if p <= 0 || p >= 100 {
			return errors.Errorf("statsd: TimerPercentile %v must be in (0, 100)", p)
		}
	}
	return nil
}

// port returns the configured port, or DefaultPort if unset.
func (c Config) port() string {
	if c.Port == "" {
		return DefaultPort
	}
	return c.Port
}
