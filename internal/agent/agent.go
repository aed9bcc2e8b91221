// Package agent stands in for the enclosing daemon named out of scope in
// spec.md §1: it owns the lifecycle of both cores and bridges them
// through a LineFormatter, so a statsd.Measurement emitted by the
// ingestion core ends up on the wire via the shipper core.
package agent

import (
	"github.com/sirupsen/logrus"

	"github.com/apkerr/metricagentd/internal/lineformat"
	"github.com/apkerr/metricagentd/internal/shipper"
	"github.com/apkerr/metricagentd/internal/statsd"
)

// Agent owns one statsd.Core and one shipper.Shipper, connected by a
// lineformat.Formatter acting as the statsd.Dispatcher.
type Agent struct {
	core *statsd.Core
	ship *shipper.Shipper
	log  *logrus.Entry
}

// Config aggregates both cores' configuration plus the flush cadence the
// enclosing daemon would otherwise supply.
type Config struct {
	Statsd  statsd.Config
	Shipper shipper.Config

	FlushInterval   shipper.Duration
	ShipperInterval shipper.Duration
	ShipperMinAge   shipper.Duration
}

// New validates both configs and wires the statsd core's Dispatcher to
// the shipper core via a lineformat.Formatter.
func New(cfg Config, log *logrus.Entry) (*Agent, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ship, err := shipper.NewShipper(cfg.Shipper, cfg.ShipperInterval.Duration(), cfg.ShipperMinAge.Duration(), log)
	if err != nil {
		return nil, err
	}

	formatter := lineformat.NewFormatter(cfg.Shipper.Precision())
	dispatcher := statsd.DispatcherFunc(func(m statsd.Measurement) error {
		line, err := formatter.Format(m)
		if err != nil {
			return err
		}
		if line == nil {
			return nil
		}
		return ship.Write(line)
	})

	core, err := statsd.NewCore(cfg.Statsd, dispatcher, cfg.FlushInterval.Duration(), log)
	if err != nil {
		ship.Close()
		return nil, err
	}

	return &Agent{core: core, ship: ship, log: log}, nil
}

// Run starts the statsd core's listen+flush loop. It blocks until Close
// is called from another goroutine.
func (a *Agent) Run() {
	a.core.Run()
}

// Close tears down both cores. The statsd core is closed first so no
// further Dispatch calls race a closing shipper.
func (a *Agent) Close() error {
	if err := a.core.Close(); err != nil {
		a.log.WithError(err).Warn("statsd core shutdown reported an error")
	}
	return a.ship.Close()
}
