package router

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/sigpipe-irc/tirc/client"
	"github.com/sigpipe-irc/tirc/internal/logctx"
	"github.com/sigpipe-irc/tirc/proto"
	"github.com/sigpipe-irc/tirc/tab"
)

const (
	appName    = "tirc"
	appVersion = "0.1"
)

// NickSource reports per-server nick state as tracked by the connection
// state machine (§4.3), so the router never duplicates that bookkeeping.
type NickSource interface {
	CurrentNick(servKey string) string
	IsNickAccepted(servKey string) bool
}

// Sender delivers an outbound protocol message on behalf of the router
// (CTCP replies, PONGs are handled lower down and never reach here).
type Sender interface {
	SendTo(servKey string, m *proto.Message) error
}

// Router maps client.Event values onto tab.List mutations and a UI (§4.6).
type Router struct {
	ui     UI
	tabs   *tab.List
	nicks  NickSource
	sender Sender
	debug  *logctx.Logger
}

// New builds a Router. tabs is the single ordered tab collection shared
// with the UI; nicks and sender are typically the same client.Manager.
func New(ui UI, tabs *tab.List, nicks NickSource, sender Sender) *Router {
	return &Router{ui: ui, tabs: tabs, nicks: nicks, sender: sender}
}

// SetDebug attaches a debug logger for replies and commands the UI contract
// has no dedicated rendering for; a nil logger (the default) silences it.
func (r *Router) SetDebug(l *logctx.Logger) { r.debug = l }

func serverKey(servKey string) tab.Key { return tab.Key{Kind: tab.KindServer, ServKey: servKey} }
func chanKey(servKey, channel string) tab.Key {
	return tab.Key{Kind: tab.KindChannel, ServKey: servKey, Name: proto.FoldNick(channel)}
}
func userKey(servKey, nick string) tab.Key {
	return tab.Key{Kind: tab.KindUser, ServKey: servKey, Name: proto.FoldNick(nick)}
}

func (r *Router) ensureChanTab(servKey, channel string) *tab.Tab {
	if t := r.tabs.Find(chanKey(servKey, channel)); t != nil {
		return t
	}
	t := r.tabs.NewChanTab(servKey, channel)
	r.ui.NewChanTab(servKey, channel)
	return t
}

func (r *Router) ensureUserTab(servKey, nick string) *tab.Tab {
	if t := r.tabs.Find(userKey(servKey, nick)); t != nil {
		return t
	}
	t := r.tabs.NewUserTab(servKey, nick)
	r.ui.NewUserTab(servKey, nick)
	return t
}

func (r *Router) ensureMentionsTab() {
	if r.tabs.Find(serverKey(tab.MentionsKey)) == nil {
		r.tabs.NewServerTab(tab.MentionsKey)
		r.ui.NewServerTab(tab.MentionsKey)
	}
}

// replyTargetFor resolves the tab a CTCP exchange with origin over target
// belongs in: the channel if target is a channel, otherwise origin's DM tab.
func (r *Router) replyTargetFor(servKey, origin, target string) MsgTarget {
	if proto.IsChannelName(target) {
		r.ensureChanTab(servKey, target)
		return ToChannel(servKey, target)
	}
	r.ensureUserTab(servKey, origin)
	return ToUser(servKey, origin)
}

// Handle dispatches a single client.Event (§4.4: the reactor hands each
// event to the router immediately after the state machine's own
// bookkeeping in handleIncoming).
func (r *Router) Handle(ev client.Event) {
	switch e := ev.(type) {
	case client.ResolvingHost:
		r.tabs.NewServerTab(e.ServKey())
		r.ui.NewServerTab(e.ServKey())
	case client.Connecting:
		r.ui.AddClientMsg(ToServer(e.ServKey()), "connecting to "+e.Addr)
	case client.Connected:
		r.ui.AddClientMsg(ToServer(e.ServKey()), "connected")
	case client.CantResolveAddr:
		r.ui.AddClientErrMsg(ToServer(e.ServKey()), "cannot resolve address: "+e.Err.Error())
	case client.TlsErr:
		r.ui.AddClientErrMsg(ToAllServTabs(e.ServKey()), "TLS error: "+e.Err.Error())
	case client.IoErr:
		r.ui.AddClientErrMsg(ToAllServTabs(e.ServKey()), "connection error: "+e.Err.Error())
	case client.ConnectionClosed:
		r.ui.AddClientMsg(ToAllServTabs(e.ServKey()), "connection closed")
	case client.Disconnected:
		r.ui.AddClientErrMsg(ToAllServTabs(e.ServKey()), "disconnected, reconnecting...")
	case client.NickChange:
		r.ui.SetNick(e.ServKey(), e.New)
	case client.Closed:
		r.tabs.CloseServer(e.ServKey())
		r.ui.CloseServerTab(e.ServKey())
	case client.Msg:
		r.handleMessage(e.ServKey(), e.Message)
	}
}

func (r *Router) handleMessage(servKey string, m *proto.Message) {
	switch m.Command {
	case proto.PING, proto.PONG, proto.AUTHENTICATE:
		// PING/PONG are answered by the connection itself (§4.3); neither
		// reaches the UI.
	case proto.PRIVMSG, proto.NOTICE:
		r.handlePrivmsgOrNotice(servKey, m)
	case proto.JOIN:
		r.handleJoin(servKey, m)
	case proto.PART:
		r.handlePart(servKey, m)
	case proto.QUIT:
		r.handleQuit(servKey, m)
	case proto.KICK:
		r.handleKick(servKey, m)
	case proto.NICK:
		r.handleNick(servKey, m)
	case proto.TOPIC:
		r.handleTopic(servKey, m)
	case proto.ERROR:
		r.ui.AddErrMsg(ToAllServTabs(servKey), m.Last())
	case proto.CAP:
		r.handleCap(servKey, m)
	default:
		r.handleReply(servKey, m)
	}
}

func (r *Router) handlePrivmsgOrNotice(servKey string, m *proto.Message) {
	if len(m.Params) == 0 || m.Source == nil {
		return
	}
	target := m.Params[0]
	origin := m.Source.Name
	text := m.Last()
	now := time.Now()

	if ctcp := proto.DecodeCTCP(m); ctcp != nil {
		r.handleCTCP(servKey, origin, target, m, ctcp)
		return
	}

	if proto.IsChannelName(target) {
		mt := ToChannel(servKey, target)
		t := r.ensureChanTab(servKey, target)
		ourNick := r.nicks.CurrentNick(servKey)
		// Substring, not whole-word: the documented (and intentionally
		// unfixed) behavior, see SPEC_FULL open question 1.
		highlight := ourNick != "" && proto.ContainsFold(text, ourNick)
		r.ui.AddPrivmsg(origin, text, now, mt, highlight, false)
		if highlight {
			t.SetStyle(tab.StyleHighlight)
			r.ensureMentionsTab()
			line := origin + " in " + servKey + ":" + target + ": " + text
			r.ui.AddMsg(ToServer(tab.MentionsKey), line)
		} else {
			t.SetStyle(tab.StyleNewMsg)
		}
		r.ui.SetTabStyle(t.Style, mt)
		return
	}

	ourNick := r.nicks.CurrentNick(servKey)
	if ourNick == "" || !proto.EqualFold(target, ourNick) {
		return
	}

	if m.Command == proto.NOTICE && r.tabs.Find(userKey(servKey, origin)) == nil {
		r.ui.AddMsg(ToServer(servKey), origin+": "+text)
		return
	}

	t := r.ensureUserTab(servKey, origin)
	ut := ToUser(servKey, origin)
	r.ui.AddPrivmsg(origin, text, now, ut, false, false)
	t.SetStyle(tab.StyleNewMsg)
	r.ui.SetTabStyle(t.Style, ut)
}

func (r *Router) handleCTCP(servKey, origin, target string, m *proto.Message, ctcp *proto.CTCP) {
	mt := r.replyTargetFor(servKey, origin, target)
	switch ctcp.Command {
	case proto.CTCPVersion:
		if m.Command == proto.PRIVMSG {
			reply := &proto.Message{
				Command:     proto.NOTICE,
				Params:      []string{origin},
				Trailing:    proto.EncodeCTCP(proto.CTCPVersion, appName+" "+appVersion),
				HasTrailing: true,
			}
			if r.sender != nil {
				_ = r.sender.SendTo(servKey, reply)
			}
			r.ui.AddClientNotifyMsg(mt, origin+" requested our client version")
		}
	case proto.CTCPAction:
		r.ui.AddPrivmsg(origin, ctcp.Text, time.Now(), mt, false, true)
	case proto.CTCPTime:
		if ctcp.Reply {
			text := ctcp.Text
			if ts, err := dateparse.ParseAny(ctcp.Text); err == nil {
				text = ts.Format(time.RFC1123)
			}
			r.ui.AddClientNotifyMsg(mt, origin+"'s time: "+text)
		}
	default:
		r.ui.AddClientNotifyMsg(mt, "CTCP "+ctcp.Command+" from "+origin)
	}
}

func (r *Router) handleJoin(servKey string, m *proto.Message) {
	if m.Source == nil || len(m.Params) == 0 {
		return
	}
	nick := m.Source.Name
	self := proto.EqualFold(nick, r.nicks.CurrentNick(servKey))
	for _, ch := range proto.SplitList(m.Params[0]) {
		if self {
			r.ensureChanTab(servKey, ch)
			continue
		}
		if t := r.tabs.Find(chanKey(servKey, ch)); t != nil {
			t.AddMember(nick)
			if !t.Ignore {
				r.ui.AddNick(servKey, ch, nick)
			}
		}
		if r.tabs.Find(userKey(servKey, nick)) != nil {
			r.ui.AddClientMsg(ToUser(servKey, nick), nick+" joined "+ch)
		}
	}
}

func (r *Router) handlePart(servKey string, m *proto.Message) {
	if m.Source == nil || len(m.Params) == 0 {
		return
	}
	nick := m.Source.Name
	if proto.EqualFold(nick, r.nicks.CurrentNick(servKey)) {
		return
	}
	for _, ch := range proto.SplitList(m.Params[0]) {
		if t := r.tabs.Find(chanKey(servKey, ch)); t != nil {
			t.RemoveMember(nick)
			if !t.Ignore {
				r.ui.RemoveNick(servKey, ch, nick)
			}
		}
	}
}

func (r *Router) handleQuit(servKey string, m *proto.Message) {
	if m.Source == nil {
		return
	}
	nick := m.Source.Name
	for _, t := range r.tabs.All() {
		if t.ServKey != servKey || t.Kind != tab.KindChannel {
			continue
		}
		if t.HasMember(nick) {
			t.RemoveMember(nick)
			if !t.Ignore {
				r.ui.RemoveNick(servKey, t.Chan, nick)
			}
		}
	}
	if r.tabs.Find(userKey(servKey, nick)) != nil {
		r.ui.AddClientMsg(ToUser(servKey, nick), nick+" quit"+quitSuffix(m))
	}
}

func quitSuffix(m *proto.Message) string {
	if reason := m.Last(); reason != "" {
		return ": " + reason
	}
	return ""
}

// handleKick implements the membership-removal lifecycle of §3 ("removed on
// PART, QUIT, KICK"), not itself enumerated in the §4.6 reply table.
func (r *Router) handleKick(servKey string, m *proto.Message) {
	if len(m.Params) < 2 {
		return
	}
	ch := m.Params[0]
	kicked := m.Params[1]
	t := r.tabs.Find(chanKey(servKey, ch))
	if t == nil {
		return
	}
	t.RemoveMember(kicked)
	r.ui.RemoveNick(servKey, ch, kicked)
	reason := "kicked"
	if m.Last() != "" {
		reason += ": " + m.Last()
	}
	r.ui.AddClientMsg(ToChannel(servKey, ch), kicked+" was "+reason)
}

func (r *Router) handleNick(servKey string, m *proto.Message) {
	if m.Source == nil || len(m.Params) == 0 {
		return
	}
	from := m.Source.Name
	to := m.Params[0]
	for _, t := range r.tabs.All() {
		if t.ServKey != servKey || t.Kind != tab.KindChannel {
			continue
		}
		if t.RenameMember(from, to) && !t.Ignore {
			r.ui.RenameNick(servKey, t.Chan, from, to)
		}
	}
	if t := r.tabs.Find(userKey(servKey, from)); t != nil {
		t.Nick = to
		if !t.Ignore {
			r.ui.RenameNick(servKey, "", from, to)
		}
	}
	// Our own nick is tracked and published as client.NickChange by
	// client.Server directly; the router only mirrors membership renames.
}

func (r *Router) handleTopic(servKey string, m *proto.Message) {
	if len(m.Params) == 0 {
		return
	}
	ch := m.Params[0]
	topic := m.Last()
	t := r.ensureChanTab(servKey, ch)
	t.Topic = topic
	r.ui.SetTopic(topic, time.Now(), servKey, ch)
}

func (r *Router) handleCap(servKey string, m *proto.Message) {
	if len(m.Params) < 2 {
		return
	}
	switch strings.ToUpper(m.Params[1]) {
	case proto.CAP_LS:
		if !strings.Contains(strings.ToLower(m.Last()), "sasl") {
			r.ui.AddClientErrMsg(ToServer(servKey), "server does not advertise sasl")
		}
	case proto.CAP_NAK:
		r.ui.AddClientErrMsg(ToServer(servKey), "capability negotiation rejected: "+m.Last())
	case proto.CAP_ACK:
		// Nothing to surface; registration proceeds.
	}
}

// handleReply implements the numeric-reply table of §4.6, plus the
// supplemented WHOIS/WHO rendering of SPEC_FULL §4 item 2.
func (r *Router) handleReply(servKey string, m *proto.Message) {
	switch m.Command {
	case proto.RPL_WELCOME, proto.RPL_YOURHOST, proto.RPL_CREATED,
		proto.RPL_LUSERCLIENT, proto.RPL_LUSERME,
		proto.RPL_MOTD, proto.RPL_MOTDSTART, proto.RPL_ENDOFMOTD:
		r.ui.AddMsg(ToServer(servKey), m.Last())
	case proto.RPL_MYINFO, proto.RPL_ISUPPORT,
		proto.RPL_LUSEROP, proto.RPL_LUSERUNKNOWN, proto.RPL_LUSERCHANNELS:
		r.ui.AddMsg(ToServer(servKey), joinedReplyBody(m))
	case proto.RPL_STATSDLINE, proto.RPL_LOCALUSERS, proto.RPL_GLOBALUSERS:
		r.ui.AddMsg(ToServer(servKey), m.Last())
	case proto.RPL_TOPIC:
		if len(m.Params) >= 2 {
			ch := m.Params[1]
			t := r.ensureChanTab(servKey, ch)
			t.Topic = m.Last()
			r.ui.SetTopic(m.Last(), time.Now(), servKey, ch)
		}
	case proto.RPL_NAMREPLY:
		if len(m.Params) >= 3 {
			ch := m.Params[2]
			t := r.ensureChanTab(servKey, ch)
			for _, nick := range strings.Fields(m.Last()) {
				t.AddMember(nick)
				r.ui.AddNick(servKey, ch, proto.StripPrefix(nick))
			}
		}
	case proto.RPL_ENDOFNAMES:
		// No-op per §4.6.
	case proto.RPL_UNAWAY, proto.RPL_NOWAWAY:
		r.ui.AddClientMsg(ToAllServTabs(servKey), m.Last())
	case proto.ERR_NOSUCHNICK:
		if len(m.Params) >= 2 {
			r.ui.AddClientErrMsg(ToUser(servKey, m.Params[1]), m.Last())
		}
	case proto.RPL_AWAY:
		if len(m.Params) >= 2 {
			nick := m.Params[1]
			r.ensureUserTab(servKey, nick)
			r.ui.AddClientMsg(ToUser(servKey, nick), nick+" is away: "+m.Last())
		}
	case proto.ERR_NICKNAMEINUSE:
		// While negotiating, client.Server itself retries with the next
		// configured nick (§4.3); only render an error once we're past that.
		if r.nicks.IsNickAccepted(servKey) {
			r.ui.AddClientErrMsg(ToServer(servKey), "nickname in use: "+m.Last())
		}
	case proto.RPL_WHOISUSER:
		if len(m.Params) >= 4 {
			nick := m.Params[1]
			r.ensureUserTab(servKey, nick)
			line := nick + " is " + m.Params[2] + "@" + m.Params[3] + " (" + m.Last() + ")"
			r.ui.AddClientMsg(ToUser(servKey, nick), line)
		}
	case proto.RPL_WHOISSERVER:
		if len(m.Params) >= 3 {
			nick := m.Params[1]
			r.ui.AddClientMsg(ToUser(servKey, nick), nick+" is connected to "+m.Params[2]+" ("+m.Last()+")")
		}
	case proto.RPL_WHOISIDLE:
		if len(m.Params) >= 3 {
			nick := m.Params[1]
			r.ui.AddClientMsg(ToUser(servKey, nick), nick+" has been idle "+formatIdleSecs(m.Params[2]))
		}
	case proto.RPL_WHOISCHANNELS:
		if len(m.Params) >= 2 {
			nick := m.Params[1]
			r.ui.AddClientMsg(ToUser(servKey, nick), nick+" is on "+m.Last())
		}
	case proto.RPL_ENDOFWHOIS:
		if len(m.Params) >= 2 {
			r.ui.AddClientMsg(ToUser(servKey, m.Params[1]), "end of WHOIS")
		}
	default:
		if m.IsReply() && m.Source != nil {
			r.ui.AddMsg(ToServer(servKey), m.Last())
		} else {
			r.debug.Printf("%s: unhandled command %s", servKey, m.Command)
		}
	}
}

func joinedReplyBody(m *proto.Message) string {
	if len(m.Params) <= 1 {
		return m.Last()
	}
	return strings.Join(m.Params[1:], " ") + " " + m.Last()
}

// formatIdleSecs renders a RPL_WHOISIDLE seconds-count as a short duration,
// manually rather than via a date-string parser (see SPEC_FULL §4 item 2).
func formatIdleSecs(secs string) string {
	var n int64
	for i := 0; i < len(secs); i++ {
		if secs[i] < '0' || secs[i] > '9' {
			return secs + "s"
		}
		n = n*10 + int64(secs[i]-'0')
	}
	d := time.Duration(n) * time.Second
	return d.String()
}
