package client

import "github.com/sigpipe-irc/tirc/proto"

// Event is the closed set of things a Server publishes to the router (§4.3).
// Implementations are value types so the router can type-switch on them.
type Event interface {
	ServKey() string
}

type base struct{ servKey string }

func (b base) ServKey() string { return b.servKey }

// ResolvingHost is published when a reconnect attempt begins resolving the
// configured address.
type ResolvingHost struct {
	base
}

// Connecting is published when the TCP dial begins.
type Connecting struct {
	base
	Addr string
}

// Connected is published once the socket (and TLS handshake, if any) is
// established and registration has been sent.
type Connected struct{ base }

// Disconnected is published when the connection is torn down, whether
// cleanly or due to error.
type Disconnected struct{ base }

// IoErr carries a non-fatal I/O error observed on the connection.
type IoErr struct {
	base
	Err error
}

// ConnectionClosed is published when the peer closes the connection
// (EOF/hang-up) rather than on our own initiative.
type ConnectionClosed struct{ base }

// TlsErr carries a TLS handshake failure.
type TlsErr struct {
	base
	Err error
}

// CantResolveAddr is published when DNS resolution fails.
type CantResolveAddr struct {
	base
	Err error
}

// NickChange is published whenever our own accepted nick changes.
type NickChange struct {
	base
	New string
}

// Msg carries a single parsed protocol message for the router (§4.3, §4.6).
type Msg struct {
	base
	Message *proto.Message
}

// Closed is the terminal event: the server has been fully removed
// (e.g. via /close).
type Closed struct{ base }
