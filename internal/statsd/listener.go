package statsd

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// readBufferSize is the minimum receive buffer the listener allocates per
// goroutine, large enough for the largest datagram a StatsD client is
// expected to send (spec.md §4.4, §6).
const readBufferSize = 4096

// reuseAddrListenConfig sets SO_REUSEADDR on every socket it binds, so a
// restart doesn't have to wait out a lingering TIME_WAIT entry from the
// previous process (spec.md §4.4).
var reuseAddrListenConfig = net.ListenConfig{
	Control: func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		if err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		}); err != nil {
			return err
		}
		return sockErr
	},
}

// UdpListener binds one UDP socket per resolved address for (host, port)
// and, for each datagram received, runs the parse+aggregate pipeline.
// Mirrors collectd's statsd_network_init/statsd_network_thread, trading
// the single poll(2) loop over many fds for one blocking-read goroutine
// per fd — the idiomatic Go mapping the REDESIGN notes in spec.md §9
// permit, since Close(), not EINTR, is what unblocks each read.
type UdpListener struct {
	log   *logrus.Entry
	store *MetricStore

	conns    []*net.UDPConn
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// NewUdpListener resolves host/port and binds one UDP socket per distinct
// resolved address. An empty host binds the wildcard address.
func NewUdpListener(host, port string, store *MetricStore, log *logrus.Entry) (*UdpListener, error) {
	if port == "" {
		port = DefaultPort
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "statsd.listener")

	addrs, err := resolveListenAddrs(host, port)
	if err != nil {
		return nil, errors.Wrap(err, "statsd: resolving listen address")
	}

	l := &UdpListener{log: log, store: store}
	for _, addr := range addrs {
		pc, err := reuseAddrListenConfig.ListenPacket(context.Background(), "udp", addr.String())
		if err != nil {
			l.closeAll()
			return nil, errors.Wrapf(err, "statsd: listening on %s", addr)
		}
		conn := pc.(*net.UDPConn)
		l.conns = append(l.conns, conn)
		log.Infof("listening on %s", conn.LocalAddr())
	}
	if len(l.conns) == 0 {
		return nil, errors.Errorf("statsd: no listening socket bound for [%s]:%s", host, port)
	}
	return l, nil
}

func resolveListenAddrs(host, port string) ([]*net.UDPAddr, error) {
	if host == "" {
		addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort("", port))
		if err != nil {
			return nil, err
		}
		return []*net.UDPAddr{addr}, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []*net.UDPAddr
	for _, ip := range ips {
		if seen[ip.String()] {
			continue
		}
		seen[ip.String()] = true
		out = append(out, &net.UDPAddr{IP: ip, Port: mustAtoi(port)})
	}
	return out, nil
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Serve runs the read loop for every bound socket and blocks until Close
// is called. It applies every received datagram's records directly to the
// store (spec.md §4.3), logging and continuing on any per-line parse
// failure.
func (l *UdpListener) Serve() {
	for _, conn := range l.conns {
		l.wg.Add(1)
		go l.readLoop(conn)
	}
	l.wg.Wait()
}

func (l *UdpListener) readLoop(conn *net.UDPConn) {
	defer l.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if l.shutdown.Load() {
				return
			}
			l.log.WithError(err).Warn("recv failed")
			continue
		}
		if n == 0 {
			continue
		}
		ParseDatagram(buf[:n], l.store.ApplyRecord, func(f ParseFailure) {
			l.log.WithField("line", f.Line).WithError(f.Err).Debug("unable to parse line")
		})
	}
}

// Close signals shutdown and closes every bound socket, unblocking every
// read loop goroutine. Safe to call once.
func (l *UdpListener) Close() error {
	l.shutdown.Store(true)
	err := l.closeAll()
	l.wg.Wait()
	return err
}

func (l *UdpListener) closeAll() error {
	var result error
	for _, conn := range l.conns {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
