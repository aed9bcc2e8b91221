// Package config implements the ConfigLoader collaborator named out of
// scope in spec.md §1: it decodes a TOML file into the records both
// cores' constructors consume.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/apkerr/metricagentd/internal/agent"
	"github.com/apkerr/metricagentd/internal/shipper"
	"github.com/apkerr/metricagentd/internal/statsd"
)

// File is the on-disk shape of metricagentd.conf.
type File struct {
	Statsd  StatsdSection  `toml:"statsd"`
	Shipper ShipperSection `toml:"shipper"`
}

// StatsdSection is the [statsd] table.
type StatsdSection struct {
	Host          string          `toml:"host"`
	Port          string          `toml:"port"`
	FlushInterval shipper.Duration `toml:"flush_interval"`

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

// ShipperSection is the [shipper] table.
type ShipperSection struct {
	Servers         []ServerEntry    `toml:"server"`
	TimeToLive      int              `toml:"time_to_live"`
	MaxPacketSize   int              `toml:"max_packet_size"`
	TimePrecision   string           `toml:"time_precision"`
	StoreRates      bool             `toml:"store_rates"`
	ResolveInterval shipper.Duration `toml:"resolve_interval"`
	BindAddress     string           `toml:"bind_address"`
	FlushInterval   shipper.Duration `toml:"flush_interval"`
	FlushMinAge     shipper.Duration `toml:"flush_min_age"`
}

// ServerEntry is one [[shipper.server]] table.
type ServerEntry struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

// Load decodes path into a File.
func Load(path string) (File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return File{}, errors.Wrapf(err, "config: decoding %s", path)
	}
	return f, nil
}

// ToAgentConfig translates the decoded file into agent.Config. Unset
// fields are passed through as zero values, which each core's own Config
// type then replaces with its documented defaults.
func (f File) ToAgentConfig() agent.Config {
	servers := make([]shipper.ServerConfig, 0, len(f.Shipper.Servers))
	for _, s := range f.Shipper.Servers {
		servers = append(servers, shipper.ServerConfig{Host: s.Host, Port: s.Port})
	}

	return agent.Config{
		Statsd: statsd.Config{
			Host:            f.Statsd.Host,
			Port:            f.Statsd.Port,
			DeleteCounters:  f.Statsd.DeleteCounters,
			DeleteTimers:    f.Statsd.DeleteTimers,
			DeleteGauges:    f.Statsd.DeleteGauges,
			DeleteSets:      f.Statsd.DeleteSets,
			CounterSum:      f.Statsd.CounterSum,
			CounterGauge:    f.Statsd.CounterGauge,
			TimerLower:      f.Statsd.TimerLower,
			TimerUpper:      f.Statsd.TimerUpper,
			TimerSum:        f.Statsd.TimerSum,
			TimerCount:      f.Statsd.TimerCount,
			TimerPercentile: f.Statsd.TimerPercentile,
		},
		Shipper: shipper.Config{
			Servers:         servers,
			TimeToLive:      f.Shipper.TimeToLive,
			MaxPacketSize:   f.Shipper.MaxPacketSize,
			TimePrecision:   shipper.TimePrecision(f.Shipper.TimePrecision),
			StoreRates:      f.Shipper.StoreRates,
			ResolveInterval: f.Shipper.ResolveInterval,
			BindAddress:     f.Shipper.BindAddress,
		},
		FlushInterval:   f.Statsd.FlushInterval,
		ShipperInterval: f.Shipper.FlushInterval,
		ShipperMinAge:   f.Shipper.FlushMinAge,
	}
}
