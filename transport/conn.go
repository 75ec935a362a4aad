// Package transport provides a uniform non-blocking-style byte stream over
// plain TCP or TLS, with optional SOCKS4/5 proxying, and the reconnect
// backoff policy of §4.2.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"golang.org/x/net/proxy"
	"h12.io/socks"
)

// RECONNECT_SECS is the fixed delay between a connection loss and the next
// reconnect attempt (§4.2). Reconnect attempts are infinite.
const RECONNECT_SECS = 30 * time.Second

// Proxy describes an optional outbound SOCKS proxy (kofany/go-ircevo irc.go
// style; see DESIGN.md).
type Proxy struct {
	// Kind is "socks4" or "socks5". Empty means no proxy.
	Kind     string
	Address  string
	Username string
	Password string
}

// Dialer matches net.Dialer's Dial signature so callers can plug in a proxy
// dialer or a mock for tests.
type Dialer interface {
	Dial(network, address string) (net.Conn, error)
}

// Config configures a single Dial call.
type Config struct {
	Addr      string
	TLS       bool
	TLSConfig *tls.Config
	Proxy     Proxy
	Timeout   time.Duration
}

// ErrProxyKind is returned for an unrecognized Proxy.Kind.
var ErrProxyKind = errors.New("transport: unknown proxy kind")

func buildDialer(cfg Config) (Dialer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	switch cfg.Proxy.Kind {
	case "":
		return &net.Dialer{Timeout: timeout}, nil
	case "socks4":
		dial := socks.Dial("socks4://" + cfg.Proxy.Username + ":" + cfg.Proxy.Password + "@" + cfg.Proxy.Address)
		return dialerFunc(dial), nil
	case "socks5":
		var auth *proxy.Auth
		if cfg.Proxy.Username != "" {
			auth = &proxy.Auth{User: cfg.Proxy.Username, Password: cfg.Proxy.Password}
		}
		d, err := proxy.SOCKS5("tcp", cfg.Proxy.Address, auth, &net.Dialer{Timeout: timeout})
		if err != nil {
			return nil, err
		}
		return dialerAdapter{d}, nil
	default:
		return nil, ErrProxyKind
	}
}

type dialerFunc func(network, addr string) (net.Conn, error)

func (f dialerFunc) Dial(network, addr string) (net.Conn, error) { return f(network, addr) }

// dialerAdapter adapts proxy.Dialer (single-arg Dial) to our two-arg Dialer.
type dialerAdapter struct {
	d proxy.Dialer
}

func (a dialerAdapter) Dial(network, addr string) (net.Conn, error) {
	return a.d.Dial(network, addr)
}

// Dial connects to cfg.Addr, optionally through a SOCKS proxy, optionally
// wrapping the result in TLS with mandatory hostname verification.
func Dial(cfg Config) (net.Conn, error) {
	dialer, err := buildDialer(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := dialer.Dial("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}

	if cfg.TLS {
		tlsConf := cfg.TLSConfig
		if tlsConf == nil {
			host, _, splitErr := net.SplitHostPort(cfg.Addr)
			if splitErr != nil {
				host = cfg.Addr
			}
			tlsConf = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
		}
		tlsConn := tls.Client(conn, tlsConf)
		if err := tlsConn.HandshakeContext(context.Background()); err != nil {
			conn.Close()
			return nil, err
		}
		return tlsConn, nil
	}

	return conn, nil
}
