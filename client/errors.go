package client

import (
	"errors"
	"time"
)

var (
	errEmptyAddr = errors.New("client: server address must not be empty")
	errNoNick    = errors.New("client: at least one nick must be configured")
)

// ParseEventError describes a line that cannot be decoded as a Message.
// Nothing in this package returns it: proto.Decoder.Feed drops such lines
// without reporting them, and the connection carries on.
type ParseEventError struct {
	Line string
}

func (e ParseEventError) Error() string { return "tirc: unable to parse line: " + e.Line }

// TimedOutError describes a PING left unanswered for PongSecs (§4.3).
// Nothing in this package returns it: on that timeout Tick closes the
// stream, and the run loop reports the loss as an IoErr event.
type TimedOutError struct {
	LastActivity time.Duration
}

func (TimedOutError) Error() string { return "tirc: timed out waiting for PONG" }
