package shipper

import "github.com/pkg/errors"

// TimePrecision selects the timestamp resolution the LineFormatter renders
// (spec.md §6).
type TimePrecision string

const (
	PrecisionNanosecond  TimePrecision = "ns"
	PrecisionMicrosecond TimePrecision = "us"
	PrecisionMillisecond TimePrecision = "ms"
)

// ServerConfig is one `Server` directive: a destination host and optional
// port (spec.md §6, repeatable).
type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

// DefaultPort is used for a ServerConfig with no Port, matching
// write_influxdb_udp.c's NET_DEFAULT_PORT.
const DefaultPort = "8089"

// DefaultPacketSize matches write_influxdb_udp.c's NET_DEFAULT_PACKET_SIZE.
const DefaultPacketSize = 1452

// Config holds the line-protocol UDP shipper's configuration options
// (spec.md §6).
type Config struct {
	Servers       []ServerConfig `toml:"server"`
	TimeToLive    int            `toml:"time_to_live"`
	MaxPacketSize int            `toml:"max_packet_size"`
	TimePrecision TimePrecision  `toml:"time_precision"`
	StoreRates    bool           `toml:"store_rates"`

	// ResolveInterval, if nonzero, forces periodic DNS re-resolution of
	// each endpoint (spec.md §4.6 "Stale"). Zero disables re-resolution
	// once a socket is connected.
	ResolveInterval Duration `toml:"resolve_interval"`

	// BindAddress, if set, is used for every endpoint's local bind
	// (spec.md §3 Endpoint.bind_addr).
	BindAddress string `toml:"bind_address"`
}

// PacketSize returns MaxPacketSize or DefaultPacketSize if unset.
func (c Config) PacketSize() int {
	if c.MaxPacketSize == 0 {
		return DefaultPacketSize
	}
	return c.MaxPacketSize
}

// Precision returns TimePrecision or PrecisionMillisecond if unset.
func (c Config) Precision() TimePrecision {
	if c.TimePrecision == "" {
		return PrecisionMillisecond
	}
	return c.TimePrecision
}

// Validate rejects configuration that must not start the core (spec.md §7,
// Config-range errors).
func (c Config) Validate() error {
	if c.TimeToLive != 0 && (c.TimeToLive < 1 || c.TimeToLive > 255) {
		return errors.Errorf("shipper: TimeToLive %d must be in [1, 255]", c.TimeToLive)
	}
	size := c.PacketSize()
	if size < 1024 || size > 65535 {
		return errors.Errorf("shipper: MaxPacketSize %d must be in [1024, 65535]", size)
	}
	switch c.Precision() {
	case PrecisionNanosecond, PrecisionMicrosecond, PrecisionMillisecond:
	default:
		return errors.Errorf("shipper: TimePrecision %q must be ns, us or ms", c.TimePrecision)
	}
	if len(c.Servers) == 0 {
		return errors.New("shipper: at least one Server directive is required")
	}
	return nil
}
