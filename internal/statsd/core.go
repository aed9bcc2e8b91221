package statsd

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Core wires the StatsD ingestion pipeline end to end: a UdpListener
// feeding a MetricStore, flushed on a ticker to a Dispatcher. It is the
// value-parameterized-over-configuration core the DESIGN NOTES in
// spec.md §9 ask for, so tests can run multiple independent instances.
type Core struct {
	cfg        Config
	store      *MetricStore
	listener   *UdpListener
	dispatcher Dispatcher
	log        *logrus.Entry

	flushInterval time.Duration

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewCore validates cfg, binds the listening socket(s), and returns a Core
// ready to Run. flushInterval is the period between MetricStore drains
// (the enclosing daemon's Gather/Read interval, out of scope per spec.md
// §1, supplied here by the caller).
func NewCore(cfg Config, dispatcher Dispatcher, flushInterval time.Duration, log *logrus.Entry) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "statsd.core")

	store := NewMetricStore()
	listener, err := NewUdpListener(cfg.Host, cfg.port(), store, log)
	if err != nil {
		return nil, err
	}

	return &Core{
		cfg:           cfg,
		store:         store,
		listener:      listener,
		dispatcher:    dispatcher,
		log:           log,
		flushInterval: flushInterval,
		stop:          make(chan struct{}),
	}, nil
}

// Run starts the listener and the flush loop. It blocks until Close is
// called.
func (c *Core) Run() {
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.listener.Serve()
	}()
	go func() {
		defer c.wg.Done()
		c.flushLoop()
	}()
	c.wg.Wait()
}

func (c *Core) flushLoop() {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Flush()
		case <-c.stop:
			return
		}
	}
}

// Flush drains the store once, dispatching every emitted measurement.
// Individual dispatch errors are logged and do not abort the drain
// (spec.md §7: per-record/per-send errors are absorbed).
func (c *Core) Flush() {
	opts := c.cfg.FlushOptions()
	c.store.DrainForFlush(opts, func(name string, m Measurement) {
		if err := c.dispatcher.Dispatch(m); err != nil {
			c.log.WithError(err).WithField("metric", name).Warn("dispatch failed")
		}
	})
}

// Close stops the flush loop and the listener. Safe to call once.
func (c *Core) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stop)
		err = c.listener.Close()
	})
	c.wg.Wait()
	return err
}
