package shipper

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Endpoint is one send destination: the Go analogue of write_influxdb_udp.c's
// sockent_t / sockent_client. Disconnected (conn == nil) transitions to
// Connected on first Send or on staleness; Send serializes per-endpoint
// via mu, so different endpoints may be sent to concurrently by callers
// that don't also hold a wider lock (spec.md §4.6, §5).
type Endpoint struct {
	Host string
	Port string

	bindAddr        *net.UDPAddr
	ttl             int
	resolveInterval time.Duration

	log       *logrus.Entry
	complaint *complainer

	mu                  sync.Mutex
	conn                *net.UDPConn
	addr                *net.UDPAddr
	nextResolveDeadline time.Time
}

// NewEndpoint constructs a disconnected Endpoint. ttl == 0 means "leave
// the OS default TTL/hop-limit alone"; resolveInterval == 0 disables
// periodic forced re-resolution.
func NewEndpoint(host, port string, ttl int, resolveInterval time.Duration, bindAddr *net.UDPAddr, log *logrus.Entry) *Endpoint {
	if port == "" {
		port = DefaultPort
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("endpoint", net.JoinHostPort(host, port))
	return &Endpoint{
		Host: host, Port: port,
		bindAddr:        bindAddr,
		ttl:             ttl,
		resolveInterval: resolveInterval,
		log:             log,
		complaint:       newComplainer(log),
	}
}

func (e *Endpoint) stale(now time.Time) bool {
	return e.resolveInterval > 0 && !e.nextResolveDeadline.IsZero() && !e.nextResolveDeadline.After(now)
}

// connect ensures the endpoint has a live socket, resolving and
// reconnecting if disconnected or stale. Must be called with mu held.
func (e *Endpoint) connect() error {
	now := time.Now()
	if e.conn != nil && !e.stale(now) {
		return nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), e.Host)
	if err != nil {
		e.complaint.Complain("unable to resolve %s: %v", e.Host, err)
		return errors.Wrapf(err, "shipper: resolving %s", e.Host)
	}
	e.complaint.Release("resolved %s", e.Host)

	var lastErr error
	for _, ip := range addrs {
		if e.conn != nil {
			e.disconnectLocked()
		}

		udpAddr := &net.UDPAddr{IP: ip.IP, Port: mustAtoi(e.Port), Zone: ip.Zone}
		conn, err := net.DialUDP("udp", e.bindAddr, udpAddr)
		if err != nil {
			lastErr = err
			continue
		}

		e.conn = conn
		e.addr = udpAddr
		e.applyTTL(udpAddr.IP)

		if e.resolveInterval > 0 {
			e.nextResolveDeadline = now.Add(e.resolveInterval)
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.Errorf("shipper: no usable address for %s", e.Host)
	}
	return errors.Wrap(lastErr, "shipper: connect")
}

// applyTTL sets IP_TTL/IP_MULTICAST_TTL (v4) or IPV6_UNICAST_HOPS/
// IPV6_MULTICAST_HOPS (v6) on the just-connected socket, matching
// write_influxdb_udp.c's set_ttl. A zero TTL leaves the OS default.
func (e *Endpoint) applyTTL(ip net.IP) {
	if e.ttl == 0 {
		return
	}
	multicast := ip.IsMulticast()
	if ip4 := ip.To4(); ip4 != nil {
		pc := ipv4.NewConn(e.conn)
		var err error
		if multicast {
			err = pc.SetMulticastTTL(e.ttl)
		} else {
			err = pc.SetTTL(e.ttl)
		}
		if err != nil {
			e.log.WithError(err).Warn("unable to set ipv4 ttl")
		}
		return
	}
	pc := ipv6.NewConn(e.conn)
	var err error
	if multicast {
		err = pc.SetMulticastHopLimit(e.ttl)
	} else {
		err = pc.SetHopLimit(e.ttl)
	}
	if err != nil {
		e.log.WithError(err).Warn("unable to set ipv6 hop limit")
	}
}

// Send transmits buf, connecting/reconnecting first if needed. EINTR/
// EAGAIN-equivalent transient errors are retried indefinitely by the Go
// runtime's own blocking write semantics; any other send error closes the
// socket so the next Send reconnects from scratch (spec.md §4.6, §7).
func (e *Endpoint) Send(buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.connect(); err != nil {
		return err
	}

	_, err := e.conn.Write(buf)
	if err != nil {
		e.log.WithError(err).Warn("sendto failed, closing socket")
		e.disconnectLocked()
		return err
	}
	return nil
}

// Disconnect closes the socket and forgets the cached address.
func (e *Endpoint) Disconnect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnectLocked()
}

func (e *Endpoint) disconnectLocked() {
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
	e.addr = nil
}

func mustAtoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
