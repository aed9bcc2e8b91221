package shipper

import (
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// preemptiveFlushMargin is the "no room for a point of average size"
// threshold from write_influxdb_udp_write: once fewer than this many
// bytes remain, the probability the next point fits is judged low enough
// to flush now rather than risk an oversize point forcing a flush anyway.
const preemptiveFlushMargin = 120

// DatagramBatcher accumulates rendered line-protocol points into a single
// size-bounded buffer and flushes the buffer to every configured Endpoint,
// in configuration order, as one UDP datagram (spec.md §4.5).
type DatagramBatcher struct {
	endpoints []*Endpoint
	log       *logrus.Entry

	mu         sync.Mutex
	buf        []byte
	fill       int
	lastUpdate time.Time
	packetSize int
}

// NewDatagramBatcher constructs a batcher of the given packet size sending
// to endpoints in the given order.
func NewDatagramBatcher(packetSize int, endpoints []*Endpoint, log *logrus.Entry) *DatagramBatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DatagramBatcher{
		endpoints:  endpoints,
		log:        log.WithField("component", "shipper.batcher"),
		buf:        make([]byte, packetSize),
		packetSize: packetSize,
	}
}

// Append adds one rendered point (no trailing newline required by the
// caller; pass it already delimited if the wire format needs it) to the
// buffer, per the append policy in spec.md §4.5: flush first if the point
// would not fit, then flush preemptively if the remaining room falls
// below the safety margin.
func (b *DatagramBatcher) Append(point []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(point) > b.packetSize {
		b.log.WithField("size", len(point)).Warn("point exceeds packet size, dropping")
		return nil
	}

	var err error
	if b.packetSize-b.fill < len(point) {
		err = b.flushLocked()
	}

	copy(b.buf[b.fill:], point)
	b.fill += len(point)
	b.lastUpdate = time.Now()

	if b.packetSize-b.fill < preemptiveFlushMargin {
		if ferr := b.flushLocked(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

// Flush flushes unless the buffer is empty, or minAge is nonzero and the
// buffer was updated more recently than minAge ago (spec.md §4.5 explicit
// flush).
func (b *DatagramBatcher) Flush(minAge time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fill == 0 {
		return nil
	}
	if minAge > 0 && time.Since(b.lastUpdate) < minAge {
		return nil
	}
	return b.flushLocked()
}

// flushLocked sends the buffer's current prefix to every endpoint in
// order, holding each endpoint's own lock for the duration of its send,
// then reinitializes the buffer. Must be called with mu held.
func (b *DatagramBatcher) flushLocked() error {
	payload := make([]byte, b.fill)
	copy(payload, b.buf[:b.fill])

	var result error
	for _, ep := range b.endpoints {
		if err := ep.Send(payload); err != nil {
			result = multierror.Append(result, err)
		}
	}

	b.resetLocked()
	return result
}

// resetLocked zero-fills and rewinds the buffer, mirroring
// write_influxdb_udp_init_buffer: a short subsequent append must never
// expose bytes left over from a longer previous one.
func (b *DatagramBatcher) resetLocked() {
	for i := range b.buf {
		b.buf[i] = 0
	}
	b.fill = 0
	b.lastUpdate = time.Time{}
}

// Fill reports the buffer's current byte count. Test/diagnostic use.
func (b *DatagramBatcher) Fill() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fill
}
