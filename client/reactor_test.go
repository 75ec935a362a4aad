package client

import (
	"testing"

	"github.com/sigpipe-irc/tirc/proto"
)

// newRegisteredServer builds a Server and registers it directly on m's
// server map, bypassing AddServer's auto-started Run goroutine so these
// tests never touch the network.
func newRegisteredServer(t *testing.T, m *Manager, servKey string) *Server {
	t.Helper()
	cfg := ServerConfig{
		ServKey:  servKey,
		Addr:     "irc.example.org:6667",
		Nicks:    []string{"nick1"},
		Username: "user",
		Realname: "Real Name",
	}
	srv := NewServer(cfg, m.events)
	m.servers.Set(servKey, srv)
	return srv
}

func TestManagerCurrentNickAndAcceptance(t *testing.T) {
	m := NewManager(8)
	srv := newRegisteredServer(t, m, "net1")
	srv.currentNick = "alice"
	srv.isNickAccepted = true

	if got := m.CurrentNick("net1"); got != "alice" {
		t.Fatalf("CurrentNick = %q, want alice", got)
	}
	if !m.IsNickAccepted("net1") {
		t.Fatal("expected nick accepted")
	}
	if got := m.CurrentNick("unknown"); got != "" {
		t.Fatalf("CurrentNick(unknown) = %q, want empty", got)
	}
	if m.IsNickAccepted("unknown") {
		t.Fatal("expected IsNickAccepted(unknown) to be false")
	}
}

func TestManagerSendToUnknownServerErrors(t *testing.T) {
	m := NewManager(8)
	if err := m.SendTo("nope", &proto.Message{Command: proto.PING}); err == nil {
		t.Fatal("expected an error sending to an unregistered server")
	}
}

func TestManagerSendToUnconnectedServerErrors(t *testing.T) {
	m := NewManager(8)
	newRegisteredServer(t, m, "net1")

	// Send before any connection exists: sendRaw reports the server isn't
	// connected rather than panicking on a nil stream.
	if err := m.SendTo("net1", &proto.Message{Command: proto.PING}); err == nil {
		t.Fatal("expected an error sending on a server with no live connection")
	}
}

func TestManagerServersSnapshotAndRemove(t *testing.T) {
	m := NewManager(8)
	newRegisteredServer(t, m, "net1")
	newRegisteredServer(t, m, "net2")

	if got := len(m.Servers()); got != 2 {
		t.Fatalf("expected 2 servers, got %d", got)
	}
	if m.Server("net1") == nil {
		t.Fatal("expected net1 to be registered")
	}

	m.RemoveServer("net1", "bye")
	if m.Server("net1") != nil {
		t.Fatal("expected net1 removed")
	}
	if got := len(m.Servers()); got != 1 {
		t.Fatalf("expected 1 server after removal, got %d", got)
	}
}

func TestManagerEventsChannelMergesServerPublish(t *testing.T) {
	m := NewManager(8)
	srv := newRegisteredServer(t, m, "net1")
	srv.publish(NickChange{base{"net1"}, "bob"})

	select {
	case ev := <-m.Events():
		nc, ok := ev.(NickChange)
		if !ok || nc.New != "bob" {
			t.Fatalf("expected NickChange{New: bob}, got %#v", ev)
		}
	default:
		t.Fatal("expected an event on the merged channel")
	}
}

func TestManagerShutdownCancelsContext(t *testing.T) {
	m := NewManager(8)
	m.Shutdown()
	select {
	case <-m.ctx.Done():
	default:
		t.Fatal("expected ctx to be cancelled after Shutdown")
	}
}
