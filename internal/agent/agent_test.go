package agent

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkerr/metricagentd/internal/shipper"
	"github.com/apkerr/metricagentd/internal/statsd"
)

// lineReceiver is a bare UDP sink collecting whatever line-protocol
// datagrams the shipper core sends it, so this test exercises the full
// statsd -> lineformat -> shipper pipeline over real sockets.
type lineReceiver struct {
	conn *net.UDPConn

	mu   sync.Mutex
	recv [][]byte
}

func newLineReceiver(t *testing.T) *lineReceiver {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	r := &lineReceiver{conn: conn}
	go r.loop()
	t.Cleanup(func() { conn.Close() })
	return r
}

func (r *lineReceiver) loop() {
	buf := make([]byte, 65535)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		got := make([]byte, n)
		copy(got, buf[:n])
		r.mu.Lock()
		r.recv = append(r.recv, got)
		r.mu.Unlock()
	}
}

func (r *lineReceiver) port() string {
	return strconv.Itoa(r.conn.LocalAddr().(*net.UDPAddr).Port)
}

func (r *lineReceiver) datagrams() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.recv))
	copy(out, r.recv)
	return out
}

func freeUDPPort(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return strconv.Itoa(port)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), "condition never became true")
}

func TestAgent_EndToEndCounterReachesWire(t *testing.T) {
	sink := newLineReceiver(t)
	statsdPort := freeUDPPort(t)

	cfg := Config{
		Statsd: statsd.Config{
			Host:       "127.0.0.1",
			Port:       statsdPort,
			CounterSum: true,
		},
		Shipper: shipper.Config{
			Servers:       []shipper.ServerConfig{{Host: "127.0.0.1", Port: sink.port()}},
			TimePrecision: shipper.PrecisionMillisecond,
		},
		FlushInterval:   shipper.Duration(20 * time.Millisecond),
		ShipperInterval: shipper.Duration(20 * time.Millisecond),
	}

	a, err := New(cfg, nil)
	require.NoError(t, err)
	go a.Run()
	defer a.Close()

	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: mustPort(t, statsdPort)})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("page.views:3|c"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("page.views:2|c"))
	require.NoError(t, err)

	waitFor(t, func() bool { return len(sink.datagrams()) >= 1 })

	var joined strings.Builder
	for _, g := range sink.datagrams() {
		joined.Write(g)
	}
	body := joined.String()
	assert.Contains(t, body, "page.views")
	assert.Contains(t, body, "value=5")
}

func mustPort(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
