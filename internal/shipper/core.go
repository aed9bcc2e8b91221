package shipper

import (
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Shipper wires a DatagramBatcher to the configured Endpoints and runs the
// periodic/min-age flush loop (spec.md §4.5, §4.6).
type Shipper struct {
	cfg       Config
	batcher   *DatagramBatcher
	endpoints []*Endpoint
	log       *logrus.Entry

	minAge time.Duration

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewShipper validates cfg and builds one Endpoint per configured Server,
// in configuration order.
func NewShipper(cfg Config, flushInterval, minAge time.Duration, log *logrus.Entry) (*Shipper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "shipper.core")

	var bindAddr *net.UDPAddr
	if cfg.BindAddress != "" {
		addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.BindAddress, "0"))
		if err != nil {
			return nil, err
		}
		bindAddr = addr
	}

	endpoints := make([]*Endpoint, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		endpoints = append(endpoints, NewEndpoint(s.Host, s.Port, cfg.TimeToLive, cfg.ResolveInterval.Duration(), bindAddr, log))
	}

	batcher := NewDatagramBatcher(cfg.PacketSize(), endpoints, log)

	sh := &Shipper{
		cfg:       cfg,
		batcher:   batcher,
		endpoints: endpoints,
		log:       log,
		minAge:    minAge,
		stop:      make(chan struct{}),
	}

	if flushInterval > 0 {
		sh.wg.Add(1)
		go sh.flushLoop(flushInterval)
	}
	return sh, nil
}

func (s *Shipper) flushLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.batcher.Flush(s.minAge); err != nil {
				s.log.WithError(err).Warn("periodic flush failed")
			}
		case <-s.stop:
			return
		}
	}
}

// Write renders one point onto the batcher. Implements the LineFormatter
// -> DatagramBatcher leg of the data flow in spec.md §2.
func (s *Shipper) Write(point []byte) error {
	return s.batcher.Append(point)
}

// Close flushes any remaining buffered data and disconnects every
// endpoint, mirroring write_influxdb_udp_shutdown's flush-then-teardown
// order.
func (s *Shipper) Close() error {
	var result error
	s.once.Do(func() {
		close(s.stop)
		if err := s.batcher.Flush(0); err != nil {
			result = multierror.Append(result, err)
		}
		for _, ep := range s.endpoints {
			ep.Disconnect()
		}
	})
	s.wg.Wait()
	return result
}
