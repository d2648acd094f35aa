package database

import (
	"context"
	"net"
	"time"

	"cities-server/internal/shared/config"

	"github.com/lib/pq"
)

// keepaliveDialer applies TCP keepalive probing to every pooled connection so
// idle connections survive firewalls and load balancers
type keepaliveDialer struct {
	dialer net.Dialer
}

var (
	_ pq.Dialer        = keepaliveDialer{}
	_ pq.DialerContext = keepaliveDialer{}
)

func newKeepaliveDialer(cfg config.KeepaliveConfig) keepaliveDialer {
	d := net.Dialer{}
	if !cfg.Enabled {
		d.KeepAlive = -1
		return keepaliveDialer{dialer: d}
	}

	d.KeepAliveConfig = net.KeepAliveConfig{
		Enable:   true,
		Idle:     cfg.Idle,
		Interval: cfg.Interval,
		Count:    cfg.Count,
	}
	return keepaliveDialer{dialer: d}
}

func (k keepaliveDialer) Dial(network, address string) (net.Conn, error) {
	return k.dialer.Dial(network, address)
}

func (k keepaliveDialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	d := k.dialer
	d.Timeout = timeout
	return d.Dial(network, address)
}

func (k keepaliveDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return k.dialer.DialContext(ctx, network, address)
}
