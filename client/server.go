package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sigpipe-irc/tirc/internal/logctx"
	"github.com/sigpipe-irc/tirc/proto"
	"github.com/sigpipe-irc/tirc/transport"
)

// State is one of the per-server connection lifecycle states of §4.3.
type State int

const (
	Disconnected State = iota
	Resolving
	Connecting
	Handshaking
	Introducing
	PingPong
	WaitPong
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Resolving:
		return "Resolving"
	case Connecting:
		return "Connecting"
	case Handshaking:
		return "Handshaking"
	case Introducing:
		return "Introducing"
	case PingPong:
		return "PingPong"
	case WaitPong:
		return "WaitPong"
	default:
		return "Unknown"
	}
}

// Server is the per-server connection state machine and mutable session
// state of §3's Data model.
type Server struct {
	cfg ServerConfig

	mu             sync.Mutex
	state          State
	currentNick    string
	nickIdx        int
	isNickAccepted bool
	lastServername string
	autoJoinLeft   map[string]bool
	identifyTried  bool

	idleTicks int
	waitTicks int

	stream *transport.Stream
	dec    *proto.Decoder

	events chan<- Event

	closing       bool
	cancelPending context.CancelFunc
	interrupt     chan struct{}

	// dial defaults to transport.Dial; tests override it to inject a mock
	// connection without touching the network.
	dial func() (net.Conn, error)

	debug *logctx.Logger
}

// SetDebug attaches a debug logger; a nil logger (the default) silences it.
func (s *Server) SetDebug(l *logctx.Logger) { s.debug = l }

// NewServer builds a Server in the Disconnected state.
func NewServer(cfg ServerConfig, events chan<- Event) *Server {
	s := &Server{
		cfg:          cfg,
		state:        Disconnected,
		currentNick:  cfg.Nicks[0],
		autoJoinLeft: map[string]bool{},
		events:       events,
		interrupt:    make(chan struct{}, 1),
	}
	s.dial = func() (net.Conn, error) {
		return transport.Dial(transport.Config{
			Addr:      s.cfg.Addr,
			TLS:       s.cfg.TLS,
			TLSConfig: s.cfg.TLSConf,
			Proxy:     s.cfg.Proxy,
		})
	}
	return s
}

// ServKey returns the server's stable identifier.
func (s *Server) ServKey() string { return s.cfg.ServKey }

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentNick returns our presently accepted (or attempted) nick.
func (s *Server) CurrentNick() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentNick
}

// IsNickAccepted reports whether a welcome (001) has been received for the
// current connection.
func (s *Server) IsNickAccepted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNickAccepted
}

func (s *Server) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Server) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
		// Reactor is momentarily behind; block briefly rather than drop a
		// protocol event, since dropping would desync the tab model.
		s.events <- ev
	}
}

// Run drives the full lifecycle: connect, introduce, read/ping loops, and
// on failure, reconnect after ReconnectSecs — forever, until ctx is
// cancelled or Close is called. Run returns only when the server is
// permanently shut down.
func (s *Server) Run(ctx context.Context) {
	for {
		ctx2, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			cancel()
			return
		}
		s.cancelPending = cancel
		s.mu.Unlock()

		_ = s.connectOnce(ctx2)
		cancel()

		s.mu.Lock()
		closing := s.closing
		s.mu.Unlock()
		if closing {
			s.publish(Closed{base{s.cfg.ServKey}})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.interrupt:
		case <-time.After(ReconnectSecs):
		}
	}
}

func (s *Server) connectOnce(ctx context.Context) error {
	s.setState(Resolving)
	s.publish(ResolvingHost{base{s.cfg.ServKey}})

	s.setState(Connecting)
	s.publish(Connecting{base{s.cfg.ServKey}, s.cfg.Addr})

	conn, err := s.dial()
	if err != nil {
		s.debug.Printf("%s: dial failed: %v", s.cfg.ServKey, err)
		var dnsErr *net.DNSError
		var opErr *net.OpError
		switch {
		case errors.As(err, &dnsErr):
			s.publish(CantResolveAddr{base{s.cfg.ServKey}, err})
		case s.cfg.TLS && !(errors.As(err, &opErr) && opErr.Op == "dial"):
			s.publish(TlsErr{base{s.cfg.ServKey}, err})
		default:
			s.publish(IoErr{base{s.cfg.ServKey}, err})
		}
		s.setState(Disconnected)
		s.publish(Disconnected{base{s.cfg.ServKey}})
		return err
	}

	s.mu.Lock()
	s.stream = transport.NewStream(conn)
	s.dec = proto.NewDecoder()
	s.isNickAccepted = false
	s.nickIdx = 0
	s.currentNick = s.cfg.Nicks[0]
	s.identifyTried = false
	s.autoJoinLeft = map[string]bool{}
	for _, ch := range s.cfg.AutoJoin {
		s.autoJoinLeft[ch] = true
	}
	s.idleTicks = 0
	s.waitTicks = 0
	s.state = PingPong
	s.mu.Unlock()

	s.debug.Printf("%s: connected, introducing as %s", s.cfg.ServKey, s.currentNick)
	s.introduce()
	s.publish(Connected{base{s.cfg.ServKey}})

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.readLoop(gctx) })

	err = group.Wait()

	s.mu.Lock()
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.state = Disconnected
	s.mu.Unlock()

	if err != nil && err != io.EOF {
		s.publish(IoErr{base{s.cfg.ServKey}, err})
	} else {
		s.publish(ConnectionClosed{base{s.cfg.ServKey}})
	}
	s.publish(Disconnected{base{s.cfg.ServKey}})
	return err
}

func (s *Server) introduce() {
	s.setState(Introducing)
	s.sendRaw(&proto.Message{Command: proto.NICK, Params: []string{s.currentNick}})
	s.sendRaw(&proto.Message{
		Command:     proto.USER,
		Params:      []string{s.cfg.Username, "0", "*"},
		Trailing:    s.cfg.Realname,
		HasTrailing: true,
	})
	s.setState(PingPong)
}

func (s *Server) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-s.stream.Reads():
			if !ok {
				return nil
			}
			if len(r.Data) > 0 {
				s.mu.Lock()
				s.idleTicks = 0
				if s.state == WaitPong {
					s.waitTicks = 0
					s.state = PingPong
				}
				msgs := s.dec.Feed(r.Data)
				s.mu.Unlock()
				for _, m := range msgs {
					s.handleIncoming(m)
				}
			}
			if r.Err != nil {
				return r.Err
			}
		}
	}
}

// handleIncoming applies the small slice of state-machine-relevant side
// effects (§4.3) before publishing the message to the router.
func (s *Server) handleIncoming(m *proto.Message) {
	switch {
	case m.Command == proto.PING:
		s.sendRaw(&proto.Message{Command: proto.PONG, Trailing: m.Last(), HasTrailing: true})
	case m.Command == proto.RPL_YOURHOST:
		s.mu.Lock()
		s.lastServername = extractYourHost(m.Last())
		s.mu.Unlock()
	case m.Command == proto.ERR_NICKNAMEINUSE:
		s.mu.Lock()
		accepted := s.isNickAccepted
		s.mu.Unlock()
		if !accepted {
			s.tryNextNick()
		}
	case m.Command == proto.RPL_WELCOME:
		s.mu.Lock()
		s.isNickAccepted = true
		if len(m.Params) > 0 {
			s.currentNick = m.Params[0]
		}
		s.mu.Unlock()
		s.publish(NickChange{base{s.cfg.ServKey}, s.CurrentNick()})
		s.autoActions()
	case m.Command == "002" || m.Command == "003" || m.Command == "004":
		s.autoActions()
	case m.Command == proto.NOTICE && m.Source != nil && strings.EqualFold(m.Source.Name, "nickserv"):
		s.maybeRetryIdentify(m.Last())
	case m.Command == proto.NICK && m.Source != nil && proto.EqualFold(m.Source.Name, s.CurrentNick()):
		if len(m.Params) > 0 {
			s.mu.Lock()
			s.currentNick = m.Params[0]
			s.mu.Unlock()
			s.publish(NickChange{base{s.cfg.ServKey}, m.Params[0]})
		}
	}

	s.publish(Msg{base{s.cfg.ServKey}, m})
}

// extractYourHost implements §4.3: the parameter string contains
// "Your host is <servername>[...]"; extract the substring between
// position 13 and the first '['.
func extractYourHost(trailing string) string {
	const prefix = "Your host is "
	if !strings.HasPrefix(trailing, prefix) {
		return ""
	}
	rest := trailing[len(prefix):]
	if br := strings.IndexByte(rest, '['); br >= 0 {
		return strings.TrimSpace(rest[:br])
	}
	return strings.TrimSpace(rest)
}

func (s *Server) tryNextNick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nickIdx++
	var next string
	if s.nickIdx < len(s.cfg.Nicks) {
		next = s.cfg.Nicks[s.nickIdx]
	} else {
		next = s.currentNick + "_"
	}
	s.currentNick = next
	s.debug.Printf("%s: nick in use, trying %s", s.cfg.ServKey, next)
	go s.sendRaw(&proto.Message{Command: proto.NICK, Params: []string{next}})
}

func (s *Server) autoActions() {
	s.mu.Lock()
	pending := make([]string, 0, len(s.autoJoinLeft))
	for ch := range s.autoJoinLeft {
		pending = append(pending, ch)
	}
	s.autoJoinLeft = map[string]bool{}
	nspass := s.cfg.NickServPass
	s.mu.Unlock()

	for _, ch := range pending {
		s.sendRaw(&proto.Message{Command: proto.JOIN, Params: []string{ch}})
	}
	if nspass != "" {
		s.sendRaw(&proto.Message{
			Command:     proto.PRIVMSG,
			Params:      []string{"NickServ"},
			Trailing:    "IDENTIFY " + nspass,
			HasTrailing: true,
		})
	}
}

// maybeRetryIdentify implements the supplemented NickServ retry
// (SPEC_FULL §4.1): a single best-effort resend if NickServ indicates the
// nick is not registered/authenticated yet, within the same session.
func (s *Server) maybeRetryIdentify(notice string) {
	s.mu.Lock()
	already := s.identifyTried
	pass := s.cfg.NickServPass
	s.mu.Unlock()
	if already || pass == "" {
		return
	}
	lower := strings.ToLower(notice)
	if !strings.Contains(lower, "isn't registered") && !strings.Contains(lower, "authentication") {
		return
	}
	s.mu.Lock()
	s.identifyTried = true
	s.mu.Unlock()
	s.sendRaw(&proto.Message{
		Command:     proto.PRIVMSG,
		Params:      []string{"NickServ"},
		Trailing:    "IDENTIFY " + pass,
		HasTrailing: true,
	})
}

// Tick advances the idle/wait counters of the ping/pong timers (§4.3,
// driven externally by the reactor's 1Hz tick, §4.4). The PING it sends is
// written on its own goroutine, so Tick does not wait on the socket. On a
// PONG timeout it closes the stream, and the run loop then tears the
// connection down and schedules a reconnect.
func (s *Server) Tick() {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case PingPong:
		s.mu.Lock()
		s.idleTicks++
		fire := s.idleTicks >= int(PingSecs/time.Second)
		servername := s.lastServername
		if fire {
			s.state = WaitPong
			s.waitTicks = 0
		}
		s.mu.Unlock()
		if fire {
			go s.sendRaw(&proto.Message{Command: proto.PING, Trailing: servername, HasTrailing: true})
		}
	case WaitPong:
		s.mu.Lock()
		s.waitTicks++
		timedOut := s.waitTicks >= int(PongSecs/time.Second)
		s.mu.Unlock()
		if timedOut {
			s.debug.Printf("%s: PONG timed out, forcing reconnect", s.cfg.ServKey)
			s.forceDisconnect()
		}
	}
}

// forceDisconnect closes the current stream, which unblocks readLoop with
// an error and lets connectOnce's reconnect path take over.
func (s *Server) forceDisconnect() {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()
	if st != nil {
		st.Close()
	}
}

// Send writes one outbound protocol message on the current connection,
// synchronously and without an outbound queue. Splitting PRIVMSGs that
// exceed the line limit (§4.1/§4.7) is the caller's (input dispatcher's)
// responsibility; Send writes exactly one line.
func (s *Server) Send(m *proto.Message) error {
	return s.sendRaw(m)
}

func (s *Server) sendRaw(m *proto.Message) error {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()
	if st == nil {
		return fmt.Errorf("tirc: server %s is not connected", s.cfg.ServKey)
	}
	_, err := st.Write(proto.Encode(m))
	return err
}

// Close tears the connection down permanently: sends QUIT with reason,
// flushes with a best-effort 1-second deadline, then cancels the run loop
// (§5 cancellation). Close returns at once; the flush and the cancellation
// run on their own goroutine.
func (s *Server) Close(reason string) {
	s.mu.Lock()
	s.closing = true
	cancel := s.cancelPending
	st := s.stream
	s.mu.Unlock()

	go func() {
		if st != nil {
			flushed := make(chan struct{})
			go func() {
				_, _ = st.Write(proto.Encode(&proto.Message{Command: proto.QUIT, Trailing: reason, HasTrailing: true}))
				close(flushed)
			}()
			select {
			case <-flushed:
			case <-time.After(time.Second):
				st.Close()
			}
		}
		if cancel != nil {
			cancel()
		}
	}()
}

// CancelPendingReconnect implements the supplemented manual-reconnect
// override (SPEC_FULL §4 item 5): if Run is waiting out the ReconnectSecs
// backoff, this wakes it immediately so a manual /connect does not have to
// wait for the timer.
func (s *Server) CancelPendingReconnect() {
	select {
	case s.interrupt <- struct{}{}:
	default:
	}
}
