package statsd

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// errParsing is returned (possibly wrapped) for any line that does not
// match the grammar in spec.md §4.1.
var errParsing = errors.New("statsd: unable to parse line")

// ParseLine parses one StatsD text record (no trailing newline). The
// splitting policy mirrors collectd's statsd_parse_line: the kind
// separator is the first '|' in the line, and the name/value separator is
// the last ':' before that '|'. This lets a metric name contain ':' but
// never a value.
func ParseLine(line string) (Record, error) {
	bar := strings.IndexByte(line, '|')
	if bar < 0 {
		return Record{}, errors.Wrapf(errParsing, "missing '|' in %q", line)
	}
	head, rest := line[:bar], line[bar+1:]

	colon := strings.LastIndexByte(head, ':')
	if colon < 0 {
		return Record{}, errors.Wrapf(errParsing, "missing ':' in %q", line)
	}
	name, valueStr := head[:colon], head[colon+1:]
	if name == "" {
		return Record{}, errors.Wrapf(errParsing, "empty name in %q", line)
	}
	if len(name) > MaxNameLen {
		return Record{}, errors.Wrapf(errParsing, "name exceeds %d bytes: %q", MaxNameLen, line)
	}

	kindStr, extra, hasExtra := strings.Cut(rest, "|")

	var kind Kind
	switch kindStr {
	case "c":
		kind = Counter
	case "ms":
		kind = Timer
	case "g":
		kind = Gauge
	case "s":
		kind = Set
	default:
		return Record{}, errors.Wrapf(errParsing, "unknown kind %q in %q", kindStr, line)
	}

	rate := 1.0
	if hasExtra {
		if kind != Counter && kind != Timer {
			return Record{}, errors.Wrapf(errParsing, "sample rate not allowed for kind %q in %q", kindStr, line)
		}
		if len(extra) == 0 || extra[0] != '@' {
			return Record{}, errors.Wrapf(errParsing, "malformed sample rate suffix in %q", line)
		}
		r, err := parseFullFloat(extra[1:])
		if err != nil {
			return Record{}, errors.Wrapf(errParsing, "bad sample rate in %q", line)
		}
		if !isFiniteRate(r) {
			return Record{}, errors.Wrapf(errParsing, "sample rate out of range in %q", line)
		}
		rate = r
	}

	// Sets carry an arbitrary member string, not a decimal value; every
	// other kind requires the value segment to parse as a float in full.
	if kind == Set {
		if valueStr == "" {
			return Record{}, errors.Wrapf(errParsing, "empty set member in %q", line)
		}
		return Record{Name: name, Kind: kind, Member: valueStr, Rate: rate}, nil
	}

	value, err := parseFullFloat(valueStr)
	if err != nil {
		return Record{}, errors.Wrapf(errParsing, "bad value in %q", line)
	}

	delta := kind == Gauge && len(valueStr) > 0 && (valueStr[0] == '+' || valueStr[0] == '-')

	return Record{Name: name, Kind: kind, Value: value, Rate: rate, GaugeDelta: delta}, nil
}

func parseFullFloat(s string) (float64, error) {
	if s == "" {
		return 0, errParsing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func isFiniteRate(r float64) bool {
	return math.IsInf(r, 0) == false && !math.IsNaN(r) && r > 0 && r <= 1
}

// ParseFailure carries the original, unmodified line alongside the parse
// error so a caller can log both.
type ParseFailure struct {
	Line string
	Err  error
}

// ParseDatagram splits buf at '\n', skips empty lines, and parses each
// remaining line. onRecord is called for each successfully parsed record
// in line order; onFailure is called for each that failed, with the
// original line text. A malformed line never affects any other line in
// the same datagram.
func ParseDatagram(buf []byte, onRecord func(Record), onFailure func(ParseFailure)) {
	s := string(buf)
	for len(s) > 0 {
		var line string
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			line, s = s[:nl], s[nl+1:]
		} else {
			line, s = s, ""
		}
		if line == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			if onFailure != nil {
				onFailure(ParseFailure{Line: line, Err: err})
			}
			continue
		}
		if onRecord != nil {
			onRecord(rec)
		}
	}
}
