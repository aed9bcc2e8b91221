// Package lineformat implements the LineFormatter collaborator named in
// spec.md §1: it renders one statsd.Measurement into the ASCII line
// protocol the shipper core transmits.
package lineformat

import (
	"math"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/apkerr/metricagentd/internal/shipper"
	"github.com/apkerr/metricagentd/internal/statsd"
)

// Formatter renders Measurements to line-protocol bytes at a fixed
// timestamp precision.
type Formatter struct {
	precision lineprotocol.Precision
}

// NewFormatter builds a Formatter for the given shipper time precision
// (spec.md §6 TimePrecision).
func NewFormatter(precision shipper.TimePrecision) *Formatter {
	return &Formatter{precision: toLineProtocolPrecision(precision)}
}

func toLineProtocolPrecision(p shipper.TimePrecision) lineprotocol.Precision {
	switch p {
	case shipper.PrecisionNanosecond:
		return lineprotocol.Nanosecond
	case shipper.PrecisionMicrosecond:
		return lineprotocol.Microsecond
	default:
		return lineprotocol.Millisecond
	}
}

// Format renders m as one line-protocol record:
//
//	<plugin>,type=<type>,type_instance=<instance> value=<v> <timestamp>
//
// matching the single-field-per-line shape write_influxdb_udp.c's
// format_influxdb_value_list produces for a single-value value_list_t. A
// NaN value has nothing meaningful to send on the wire: Format returns
// (nil, nil), mirroring format_influxdb_value_list's status == 0 ("no
// real values to send") case, which write_influxdb_udp_write treats as a
// no-op rather than an error.
func (f *Formatter) Format(m statsd.Measurement) ([]byte, error) {
	value := 0.0
	if len(m.Values) > 0 {
		value = m.Values[0]
	}
	if math.IsNaN(value) {
		return nil, nil
	}

	var enc lineprotocol.Encoder
	enc.SetPrecision(f.precision)

	enc.StartLine(m.Plugin)
	enc.AddTag("type", string(m.Type))
	enc.AddTag("type_instance", m.TypeInstance)
	enc.AddField("value", lineprotocol.MustNewValue(value))

	ts := m.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	enc.EndLine(ts)

	if err := enc.Err(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
