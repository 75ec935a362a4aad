package client

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sigpipe-irc/tirc/proto"
)

// newTestServer wires Server.dial to the client side of a net.Pipe, giving
// the test the server side to script against without any real network I/O.
func newTestServer(cfg ServerConfig) (*Server, net.Conn, chan Event) {
	server, client := net.Pipe()
	events := make(chan Event, 64)
	cfg.ServKey = "test"
	if len(cfg.Nicks) == 0 {
		cfg.Nicks = []string{"nick1", "nick2"}
	}
	if cfg.Addr == "" {
		cfg.Addr = "irc.example.org:6667"
	}
	if cfg.Username == "" {
		cfg.Username = "user"
	}
	if cfg.Realname == "" {
		cfg.Realname = "Real Name"
	}
	s := NewServer(cfg, events)
	used := false
	s.dial = func() (net.Conn, error) {
		if used {
			return nil, net.ErrClosed
		}
		used = true
		return client, nil
	}
	return s, server, events
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read line: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func waitForEvent[T Event](t *testing.T, events chan Event, timeout time.Duration) T {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if v, ok := ev.(T); ok {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for event of type %T", zero)
			return zero
		}
	}
}

// TestServerIntroducesAndRepliesToPing exercises §8 scenario 1: on connect
// the server sends NICK/USER, and a PING from the peer gets an immediate
// PONG echoing the same token.
func TestServerIntroducesAndRepliesToPing(t *testing.T) {
	s, peer, events := newTestServer(ServerConfig{})
	r := bufio.NewReader(peer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	if got := readLine(t, r); got != "NICK nick1" {
		t.Fatalf("got %q want NICK nick1", got)
	}
	if got := readLine(t, r); got != "USER user 0 * :Real Name" {
		t.Fatalf("got %q want USER line", got)
	}

	waitForEvent[Connected](t, events, time.Second)

	if _, err := peer.Write([]byte("PING :abc123\r\n")); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if got := readLine(t, r); got != "PONG :abc123" {
		t.Fatalf("got %q want PONG :abc123", got)
	}

	s.Close("done")
}

// TestServerNickRetryOn433 exercises §8 scenario 3: ERR_NICKNAMEINUSE before
// acceptance advances to the next configured nick and resends NICK.
func TestServerNickRetryOn433(t *testing.T) {
	s, peer, events := newTestServer(ServerConfig{Nicks: []string{"taken", "fallback"}})
	r := bufio.NewReader(peer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	readLine(t, r) // NICK taken
	readLine(t, r) // USER ...
	waitForEvent[Connected](t, events, time.Second)

	peer.Write([]byte(":irc.example.org 433 * taken :Nickname is already in use\r\n"))

	if got := readLine(t, r); got != "NICK fallback" {
		t.Fatalf("got %q want NICK fallback", got)
	}
	if s.CurrentNick() != "fallback" {
		t.Fatalf("CurrentNick() = %q, want fallback", s.CurrentNick())
	}

	s.Close("done")
}

// TestServerWelcomeAcceptsNick confirms RPL_WELCOME marks the nick accepted
// and publishes a NickChange, after which a further 433 is ignored.
func TestServerWelcomeAcceptsNick(t *testing.T) {
	s, peer, events := newTestServer(ServerConfig{Nicks: []string{"first", "second"}})
	r := bufio.NewReader(peer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	readLine(t, r)
	readLine(t, r)
	waitForEvent[Connected](t, events, time.Second)

	peer.Write([]byte(":irc.example.org 001 first :Welcome\r\n"))
	nc := waitForEvent[NickChange](t, events, time.Second)
	if nc.New != "first" {
		t.Fatalf("got nick %q want first", nc.New)
	}
	if !s.IsNickAccepted() {
		t.Fatal("expected IsNickAccepted() true after 001")
	}

	// A stray 433 after acceptance must not trigger a nick change.
	peer.Write([]byte(":irc.example.org 433 first second :Nickname is already in use\r\n"))
	time.Sleep(20 * time.Millisecond)
	if s.CurrentNick() != "first" {
		t.Fatalf("nick changed after acceptance: %q", s.CurrentNick())
	}

	s.Close("done")
}

// TestServerTickTimesOutAndDisconnects drives Tick() manually to exercise the
// 60s idle->PING, 60s PING->disconnect timers (§8 scenario 4) without
// sleeping real wall-clock seconds.
func TestServerTickTimesOutAndDisconnects(t *testing.T) {
	s, peer, events := newTestServer(ServerConfig{})
	r := bufio.NewReader(peer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	readLine(t, r)
	readLine(t, r)
	waitForEvent[Connected](t, events, time.Second)

	pingSecs := int(PingSecs / time.Second)
	for i := 0; i < pingSecs-1; i++ {
		s.Tick()
	}
	if s.State() != PingPong {
		t.Fatalf("expected still PingPong before threshold, got %v", s.State())
	}
	s.Tick() // crosses PingSecs threshold, should fire our own PING
	if s.State() != WaitPong {
		t.Fatalf("expected WaitPong after idle threshold, got %v", s.State())
	}
	if got := readLine(t, r); !strings.HasPrefix(got, "PING") {
		t.Fatalf("got %q want PING line", got)
	}

	pongSecs := int(PongSecs / time.Second)
	for i := 0; i < pongSecs; i++ {
		s.Tick()
	}
	waitForEvent[Disconnected](t, events, time.Second)

	s.Close("done")
}

// TestServerCloseSendsQuit confirms Close writes a QUIT with the given
// reason before tearing the connection down.
func TestServerCloseSendsQuit(t *testing.T) {
	s, peer, events := newTestServer(ServerConfig{})
	r := bufio.NewReader(peer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	readLine(t, r)
	readLine(t, r)
	waitForEvent[Connected](t, events, time.Second)

	s.Close("goodbye")

	if got := readLine(t, r); got != "QUIT :goodbye" {
		t.Fatalf("got %q want QUIT :goodbye", got)
	}
	waitForEvent[Closed](t, events, 2*time.Second)
}

// TestServerMessageParsing confirms proto.Parse round-trips through
// handleIncoming and publishes a Msg event for an otherwise unremarkable
// line.
func TestServerMessageParsing(t *testing.T) {
	s, peer, events := newTestServer(ServerConfig{})
	r := bufio.NewReader(peer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	readLine(t, r)
	readLine(t, r)
	waitForEvent[Connected](t, events, time.Second)

	peer.Write([]byte(":nick!u@h PRIVMSG #chan :hello there\r\n"))
	m := waitForEvent[Msg](t, events, time.Second)
	if m.Message.Command != proto.PRIVMSG {
		t.Fatalf("got command %q want PRIVMSG", m.Message.Command)
	}
	if m.Message.Last() != "hello there" {
		t.Fatalf("got trailing %q want %q", m.Message.Last(), "hello there")
	}

	s.Close("done")
}
