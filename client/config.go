// Package client implements the per-server connection state machine (C3)
// and the single-reactor event multiplexer (C4).
package client

import (
	"crypto/tls"
	"time"

	"github.com/sigpipe-irc/tirc/transport"
)

// Timing constants from §4.3/§5.
const (
	PingSecs = 60 * time.Second
	PongSecs = 60 * time.Second
)

// ReconnectSecs re-exports transport's fixed reconnect delay (§4.2).
const ReconnectSecs = transport.RECONNECT_SECS

// ServerConfig is the static, user-supplied description of one server
// (§3 Data model, §6.3).
type ServerConfig struct {
	// ServKey is the stable identifier for this server — the configured
	// address (§3).
	ServKey string

	Addr     string
	TLS      bool
	TLSConf  *tls.Config
	Proxy    transport.Proxy
	Hostname string

	Nicks    []string
	Username string
	Realname string

	AutoJoin      []string
	NickServPass  string
}

// Validate reports a configuration problem, if any.
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return errEmptyAddr
	}
	if len(c.Nicks) == 0 {
		return errNoNick
	}
	return nil
}
