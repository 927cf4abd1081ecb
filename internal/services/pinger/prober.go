package pinger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/go-ping/ping"
)

// Prober checks one address. It never fails: every problem is reported as an
// unreachable outcome with a message.
type Prober interface {
	Probe(ctx context.Context, address string, timeout time.Duration) target.ProbeOutcome
}

type ProberFunc func(ctx context.Context, address string, timeout time.Duration) target.ProbeOutcome

func (f ProberFunc) Probe(ctx context.Context, address string, timeout time.Duration) target.ProbeOutcome {
	return f(ctx, address, timeout)
}

// ICMPProber sends echo requests and reports the target alive when at least
// one reply arrives before the timeout.
type ICMPProber struct {
	Count      int
	Privileged bool
}

func (p ICMPProber) Probe(ctx context.Context, address string, timeout time.Duration) target.ProbeOutcome {
	if err := target.ValidateAddress(address); err != nil {
		return unreachable(address, err)
	}
	pinger, err := ping.NewPinger(address)
	if err != nil {
		return unreachable(address, fmt.Errorf("create pinger: %w", err))
	}
	pinger.Count = max(p.Count, 1)
	pinger.Timeout = timeout
	pinger.SetPrivileged(p.Privileged)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		return unreachable(address, fmt.Errorf("ping: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return unreachable(address, err)
	}

	st := pinger.Statistics()
	if st.PacketsRecv == 0 {
		return unreachable(address, fmt.Errorf("no reply: %d/%d packets within %s", st.PacketsRecv, st.PacketsSent, timeout))
	}
	rtt := st.AvgRtt
	return target.ProbeOutcome{Address: address, Alive: true, Latency: &rtt}
}

// TCPProber treats a completed TCP handshake, or an active refusal, as proof
// the host is up. Used where ICMP sockets are not permitted.
type TCPProber struct {
	Port int
}

func (p TCPProber) Probe(ctx context.Context, address string, timeout time.Duration) target.ProbeOutcome {
	if err := target.ValidateAddress(address); err != nil {
		return unreachable(address, err)
	}
	port := p.Port
	if port <= 0 {
		port = 80
	}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(dctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	rtt := time.Since(start)
	if err == nil {
		_ = conn.Close()
		return target.ProbeOutcome{Address: address, Alive: true, Latency: &rtt}
	}
	if isRefused(err) {
		return target.ProbeOutcome{Address: address, Alive: true, Latency: &rtt}
	}
	return unreachable(address, err)
}

func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func unreachable(address string, err error) target.ProbeOutcome {
	return target.ProbeOutcome{Address: address, Alive: false, Error: err.Error()}
}
