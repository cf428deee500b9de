// Package dial is the TCP connect helper: address resolution, connect,
// TCP_NODELAY. pkg/venue never dials for itself — it is always handed
// an already connected net.Conn — so this package is the one place
// that decision lives.
package dial

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Dialer connects to a gateway address on demand. Workers hold one and
// call Dial at the top of every reconnect loop iteration.
type Dialer struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// New returns a Dialer with the given host/port and a default 5s
// connect timeout.
func New(host string, port int) *Dialer {
	return &Dialer{Host: host, Port: port, Timeout: 5 * time.Second}
}

// Dial resolves and connects to the gateway, enabling TCP_NODELAY
// before returning. The returned connection is in blocking mode; the
// non-blocking read path is emulated at the pkg/venue.Socket layer via
// per-call read deadlines rather than a socket-wide nonblocking flag,
// which has no direct net.Conn analog.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", d.Host, d.Port)
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}
