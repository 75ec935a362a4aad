package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/sigpipe-irc/tirc/internal/logctx"
	"github.com/sigpipe-irc/tirc/proto"
)

// Manager is the single reactor of §4.4: it owns every Server, merges
// their published events onto one channel, and drives each Server's 1Hz
// tick. Input events from stdin are handled by the caller (see
// cmd/tirc-line), which reads from the same Events channel interleaved
// with its own input loop, matching §4.4's "stdin, each transport handle,
// and a 1-second periodic timer" registration model.
type Manager struct {
	// servers is concurrency-safe because it's written from AddServer/
	// RemoveServer (caller goroutine) and read from StartTicker's own
	// goroutine concurrently with the reactor loop, mirroring the teacher's
	// own cmap.ConcurrentMap-backed state (state.go's channels/users tables).
	servers cmap.ConcurrentMap
	events  chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	tickerDone chan struct{}

	debug *logctx.Logger
}

// SetDebug sets the debug logger handed to every server registered from
// this point on; a nil logger (the default) silences it.
func (m *Manager) SetDebug(l *logctx.Logger) { m.debug = l }

// NewManager creates a Manager with the given event buffer size.
func NewManager(bufSize int) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		servers:    cmap.New(),
		events:     make(chan Event, bufSize),
		ctx:        ctx,
		cancel:     cancel,
		tickerDone: make(chan struct{}),
	}
}

// Events returns the merged event stream consumed by the router.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// AddServer registers and starts a new server connection.
func (m *Manager) AddServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	srv := NewServer(cfg, m.events)
	srv.SetDebug(m.debug)
	m.servers.Set(cfg.ServKey, srv)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		srv.Run(m.ctx)
	}()
	return srv, nil
}

// Server returns the server registered under servKey, or nil.
func (m *Manager) Server(servKey string) *Server {
	v, ok := m.servers.Get(servKey)
	if !ok {
		return nil
	}
	return v.(*Server)
}

// Servers returns a snapshot of all registered servers.
func (m *Manager) Servers() []*Server {
	items := m.servers.Items()
	out := make([]*Server, 0, len(items))
	for _, v := range items {
		out = append(out, v.(*Server))
	}
	return out
}

// RemoveServer permanently closes and forgets the server under servKey
// (the /close of a server tab, §3 lifecycle).
func (m *Manager) RemoveServer(servKey, reason string) {
	srv := m.Server(servKey)
	m.servers.Remove(servKey)
	if srv != nil {
		srv.Close(reason)
	}
}

// StartTicker begins the 1Hz reactor tick (§4.4 step 3) that drives every
// registered server's ping/pong timers.
func (m *Manager) StartTicker() {
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-m.ctx.Done():
				close(m.tickerDone)
				return
			case <-t.C:
				for _, s := range m.Servers() {
					s.Tick()
				}
			}
		}
	}()
}

// CurrentNick implements router.NickSource.
func (m *Manager) CurrentNick(servKey string) string {
	if s := m.Server(servKey); s != nil {
		return s.CurrentNick()
	}
	return ""
}

// IsNickAccepted implements router.NickSource.
func (m *Manager) IsNickAccepted(servKey string) bool {
	if s := m.Server(servKey); s != nil {
		return s.IsNickAccepted()
	}
	return false
}

// SendTo implements router.Sender: it looks up the named server and writes
// m on its connection.
func (m *Manager) SendTo(servKey string, msg *proto.Message) error {
	s := m.Server(servKey)
	if s == nil {
		return fmt.Errorf("client: unknown server %q", servKey)
	}
	return s.Send(msg)
}

// Shutdown cancels every server's run loop and waits for them to exit.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}
