package pinger

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (*net.TCPListener, int) {
	t.Helper()
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	return ln, ln.Addr().(*net.TCPAddr).Port
}

func TestTCPProberOpenPort(t *testing.T) {
	ln, port := listen(t)
	defer ln.Close()

	out := TCPProber{Port: port}.Probe(context.Background(), "127.0.0.1", time.Second)
	assert.True(t, out.Alive)
	assert.Equal(t, "127.0.0.1", out.Address)
	require.NotNil(t, out.Latency)
	assert.Empty(t, out.Error)
}

func TestTCPProberRefusedCountsAsAlive(t *testing.T) {
	ln, port := listen(t)
	require.NoError(t, ln.Close())

	out := TCPProber{Port: port}.Probe(context.Background(), "127.0.0.1", time.Second)
	assert.True(t, out.Alive, out.Error)
}

func TestProbersRejectInvalidAddress(t *testing.T) {
	for _, p := range []Prober{TCPProber{Port: 80}, ICMPProber{Count: 1}} {
		out := p.Probe(context.Background(), "not-an-ip", 100*time.Millisecond)
		assert.False(t, out.Alive)
		assert.Equal(t, "not-an-ip", out.Address)
		assert.Contains(t, out.Error, "invalid target address")
	}
}

func TestTCPProberCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// TEST-NET-1 never answers; the cancelled context must win.
	out := TCPProber{Port: 9}.Probe(ctx, "192.0.2.1", 5*time.Second)
	assert.False(t, out.Alive)
	assert.NotEmpty(t, out.Error)
}
