package shipper

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// complainer is a rate-limited logging helper: the same underlying failure
// (e.g. a DNS resolve error) is reported once at Warn, then demoted to
// Debug until something changes, mirroring collectd's c_complain /
// c_release helpers used by write_influxdb_udp's sockent_client_connect.
type complainer struct {
	log *logrus.Entry

	mu         sync.Mutex
	complained bool
}

func newComplainer(log *logrus.Entry) *complainer {
	return &complainer{log: log}
}

// Complain logs msg at Warn the first time it's called since the last
// Release, and at Debug on every repeat.
func (c *complainer) Complain(msg string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.complained {
		c.complained = true
		c.log.Warnf(msg, args...)
		return
	}
	c.log.Debugf(msg, args...)
}

// Release logs once, at Info, that a previously complained-about
// condition has cleared. A no-op if nothing was outstanding.
func (c *complainer) Release(msg string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.complained {
		return
	}
	c.complained = false
	c.log.Infof(msg, args...)
}
