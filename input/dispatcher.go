// Package input implements the input dispatcher (C7): slash commands,
// implied-target PRIVMSG sends, and outbound message segmentation.
package input

import (
	"sort"
	"strings"
	"time"

	"github.com/sigpipe-irc/tirc/client"
	"github.com/sigpipe-irc/tirc/proto"
	"github.com/sigpipe-irc/tirc/router"
	"github.com/sigpipe-irc/tirc/tab"
)

// Dispatcher turns a submitted input line, in the context of the presently
// active tab, into outbound protocol traffic and/or tab mutations (§4.7).
type Dispatcher struct {
	tabs *tab.List
	ui   router.UI
	mgr  *client.Manager

	// newServerConfig builds a ServerConfig for a bare address using the
	// loaded defaults (§6.3); supplied by cmd/tirc-line at startup.
	newServerConfig func(addr string) client.ServerConfig

	// reload re-reads the configuration file (§4.7's documented /reload
	// effect); nil disables the command. cmd/tirc-line's reload replaces the
	// loaded document, which later /connect calls take defaults from; the
	// document's colors are not applied to any renderer.
	reload func() error
}

// NewDispatcher builds a Dispatcher wired to the live tab list, renderer,
// and connection manager.
func NewDispatcher(tabs *tab.List, ui router.UI, mgr *client.Manager, newServerConfig func(string) client.ServerConfig, reload func() error) *Dispatcher {
	return &Dispatcher{tabs: tabs, ui: ui, mgr: mgr, newServerConfig: newServerConfig, reload: reload}
}

// HandleLine processes one submitted line: a slash command if it begins
// with '/', otherwise a PRIVMSG to the active tab's implied target.
func (d *Dispatcher) HandleLine(line string) {
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "/") {
		d.dispatchCommand(line[1:])
		return
	}
	d.sendToCurrentTab(line)
}

func (d *Dispatcher) currentTab() *tab.Tab { return d.tabs.Active() }

func (d *Dispatcher) targetForTab(t *tab.Tab) router.MsgTarget {
	switch t.Kind {
	case tab.KindChannel:
		return router.ToChannel(t.ServKey, t.Chan)
	case tab.KindUser:
		return router.ToUser(t.ServKey, t.Nick)
	default:
		return router.ToServer(t.ServKey)
	}
}

func (d *Dispatcher) targetFor(servKey, target string) router.MsgTarget {
	if proto.IsChannelName(target) {
		return router.ToChannel(servKey, target)
	}
	return router.ToUser(servKey, target)
}

func (d *Dispatcher) errOnTab(t *tab.Tab, text string) {
	if t == nil {
		d.ui.AddClientErrMsg(router.ToServer(""), text)
		return
	}
	d.ui.AddClientErrMsg(d.targetForTab(t), text)
}

func (d *Dispatcher) send(servKey string, m *proto.Message) {
	if d.mgr == nil {
		return
	}
	if err := d.mgr.SendTo(servKey, m); err != nil {
		d.ui.AddClientErrMsg(router.ToServer(servKey), "send failed: "+err.Error())
	}
}

func (d *Dispatcher) ensureUserTab(servKey, nick string) {
	key := tab.Key{Kind: tab.KindUser, ServKey: servKey, Name: proto.FoldNick(nick)}
	if d.tabs.Find(key) == nil {
		d.tabs.NewUserTab(servKey, nick)
		d.ui.NewUserTab(servKey, nick)
	}
}

// sendToCurrentTab sends text as a PRIVMSG to the active tab's implied
// target: the channel for a Channel tab, the nick for a User tab. Server and
// "mentions" tabs have no implied target and reject ordinary text.
func (d *Dispatcher) sendToCurrentTab(text string) {
	t := d.currentTab()
	if t == nil {
		return
	}
	var target string
	switch t.Kind {
	case tab.KindChannel:
		target = t.Chan
	case tab.KindUser:
		target = t.Nick
	default:
		d.errOnTab(t, "no target in this tab; use /msg or /connect")
		return
	}
	d.sendText(t.ServKey, target, text, false)
}

// sendText implements the §4.7 PRIVMSG segmentation: each chunk is sent and
// echoed independently.
func (d *Dispatcher) sendText(servKey, target, text string, ctcp bool) {
	me := ""
	if d.mgr != nil {
		me = d.mgr.CurrentNick(servKey)
	}
	for _, chunk := range proto.SplitPRIVMSG(target, text, ctcp) {
		msg := &proto.Message{Command: proto.PRIVMSG, Params: []string{target}, Trailing: chunk, HasTrailing: true}
		d.send(servKey, msg)
		d.ui.AddPrivmsg(me, chunk, time.Now(), d.targetFor(servKey, target), false, false)
	}
}

func splitCommand(rest string) (name, args string) {
	rest = strings.TrimSpace(rest)
	sp := strings.IndexByte(rest, ' ')
	if sp < 0 {
		return rest, ""
	}
	return rest[:sp], strings.TrimSpace(rest[sp+1:])
}

func (d *Dispatcher) dispatchCommand(rest string) {
	name, args := splitCommand(rest)
	handler, ok := commandTable[strings.ToLower(name)]
	if !ok {
		d.errOnTab(d.currentTab(), "unknown command: /"+name)
		return
	}
	handler(d, args)
}

var commandTable = map[string]func(*Dispatcher, string){
	"connect": cmdConnect,
	"join":    cmdJoin,
	"msg":     cmdMsg,
	"me":      cmdMe,
	"away":    cmdAway,
	"nick":    cmdNick,
	"names":   cmdNames,
	"topic":   cmdTopic,
	"close":   cmdClose,
	"clear":   cmdClear,
	"switch":  cmdSwitch,
	"ignore":  cmdIgnore,
	"reload":  cmdReload,
	"quit":    cmdQuit,
	"part":    cmdPart,
}

func cmdConnect(d *Dispatcher, args string) {
	t := d.currentTab()
	servKey := ""
	if t != nil {
		servKey = t.ServKey
	}
	addr := args
	if addr == "" {
		if servKey == "" {
			d.errOnTab(t, "/connect: no current server and no address given")
			return
		}
		if s := d.mgr.Server(servKey); s != nil {
			s.CancelPendingReconnect()
			d.ui.AddClientMsg(router.ToServer(servKey), "reconnecting now")
			return
		}
		addr = servKey
	}
	if d.newServerConfig == nil || d.mgr == nil {
		d.errOnTab(t, "/connect: no connection manager configured")
		return
	}
	cfg := d.newServerConfig(addr)
	if _, err := d.mgr.AddServer(cfg); err != nil {
		d.errOnTab(t, "/connect: "+err.Error())
	}
}

func cmdJoin(d *Dispatcher, args string) {
	t := d.currentTab()
	if t == nil || args == "" {
		d.errOnTab(t, "/join: expected one or more channel names")
		return
	}
	channels := strings.Join(strings.Fields(args), ",")
	d.send(t.ServKey, &proto.Message{Command: proto.JOIN, Params: []string{channels}})
}

func cmdMsg(d *Dispatcher, args string) {
	target, text := splitCommand(args)
	t := d.currentTab()
	if target == "" || text == "" {
		d.errOnTab(t, "/msg: expected <target> <text>")
		return
	}
	if t == nil {
		return
	}
	if !proto.IsChannelName(target) {
		d.ensureUserTab(t.ServKey, target)
	}
	d.sendText(t.ServKey, target, text, false)
}

func cmdMe(d *Dispatcher, args string) {
	t := d.currentTab()
	if t == nil || args == "" {
		return
	}
	var target string
	switch t.Kind {
	case tab.KindChannel:
		target = t.Chan
	case tab.KindUser:
		target = t.Nick
	default:
		d.errOnTab(t, "/me: no target in this tab")
		return
	}
	action := proto.EncodeCTCP(proto.CTCPAction, args)
	d.send(t.ServKey, &proto.Message{Command: proto.PRIVMSG, Params: []string{target}, Trailing: action, HasTrailing: true})
	me := ""
	if d.mgr != nil {
		me = d.mgr.CurrentNick(t.ServKey)
	}
	d.ui.AddPrivmsg(me, args, time.Now(), d.targetFor(t.ServKey, target), false, true)
}

func cmdAway(d *Dispatcher, args string) {
	t := d.currentTab()
	if t == nil {
		return
	}
	msg := &proto.Message{Command: proto.AWAY}
	if args != "" {
		msg.Trailing = args
		msg.HasTrailing = true
	}
	d.send(t.ServKey, msg)
}

func cmdNick(d *Dispatcher, args string) {
	t := d.currentTab()
	if t == nil || args == "" {
		d.errOnTab(t, "/nick: expected a new nick")
		return
	}
	d.send(t.ServKey, &proto.Message{Command: proto.NICK, Params: []string{args}})
}

func cmdNames(d *Dispatcher, _ string) {
	t := d.currentTab()
	if t == nil || t.Kind != tab.KindChannel {
		d.errOnTab(t, "/names: not a channel tab")
		return
	}
	names := t.MemberNames()
	sort.Strings(names)
	d.ui.AddClientMsg(router.ToChannel(t.ServKey, t.Chan), "names: "+strings.Join(names, ", "))
}

func cmdTopic(d *Dispatcher, _ string) {
	t := d.currentTab()
	if t == nil || t.Kind != tab.KindChannel {
		d.errOnTab(t, "/topic: not a channel tab")
		return
	}
	topic := t.Topic
	if topic == "" {
		topic = "(no topic set)"
	}
	d.ui.AddClientMsg(router.ToChannel(t.ServKey, t.Chan), "topic: "+topic)
}

func cmdClose(d *Dispatcher, _ string) {
	t := d.currentTab()
	if t == nil {
		return
	}
	idx := d.tabs.ActiveIndex()
	switch t.Kind {
	case tab.KindChannel:
		d.send(t.ServKey, &proto.Message{Command: proto.PART, Params: []string{t.Chan}})
		d.tabs.Close(idx)
		d.ui.CloseChanTab(t.ServKey, t.Chan)
	case tab.KindUser:
		d.tabs.Close(idx)
		d.ui.CloseUserTab(t.ServKey, t.Nick)
	default:
		if d.mgr != nil {
			d.mgr.RemoveServer(t.ServKey, "closed")
		}
		d.tabs.CloseServer(t.ServKey)
		d.ui.CloseServerTab(t.ServKey)
	}
}

func cmdClear(d *Dispatcher, _ string) {
	t := d.currentTab()
	if t == nil {
		return
	}
	t.Clear()
	d.ui.Clear(d.targetForTab(t))
}

func cmdSwitch(d *Dispatcher, args string) {
	if args == "" {
		return
	}
	if !d.tabs.SwitchToSubstring(args) {
		d.errOnTab(d.currentTab(), "/switch: no tab matching \""+args+"\"")
	}
}

func cmdIgnore(d *Dispatcher, _ string) {
	t := d.currentTab()
	if t == nil {
		return
	}
	t.Ignore = !t.Ignore
	if t.Kind == tab.KindServer {
		for _, other := range d.tabs.All() {
			if other.ServKey == t.ServKey && other.Kind == tab.KindChannel {
				other.Ignore = t.Ignore
			}
		}
		d.ui.ToggleIgnore(router.ToAllServTabs(t.ServKey))
		return
	}
	d.ui.ToggleIgnore(d.targetForTab(t))
}

func cmdReload(d *Dispatcher, _ string) {
	if d.reload == nil {
		return
	}
	if err := d.reload(); err != nil {
		d.errOnTab(d.currentTab(), "/reload: "+err.Error())
	}
}

// cmdQuit is the supplemented /quit command (SPEC_FULL §4 item 3): closes
// the current server entirely, with an optional QUIT reason.
func cmdQuit(d *Dispatcher, args string) {
	t := d.currentTab()
	if t == nil {
		return
	}
	reason := args
	if reason == "" {
		reason = "leaving"
	}
	if d.mgr != nil {
		d.mgr.RemoveServer(t.ServKey, reason)
	}
	d.tabs.CloseServer(t.ServKey)
	d.ui.CloseServerTab(t.ServKey)
}

// cmdPart is the supplemented /part command (SPEC_FULL §4 item 3): leaves
// the current channel with an optional reason. Unlike /close it works only
// on a channel tab and can carry a PART reason; both send PART, then remove
// the tab.
func cmdPart(d *Dispatcher, args string) {
	t := d.currentTab()
	if t == nil || t.Kind != tab.KindChannel {
		d.errOnTab(t, "/part: not a channel tab")
		return
	}
	msg := &proto.Message{Command: proto.PART, Params: []string{t.Chan}}
	if args != "" {
		msg.Trailing = args
		msg.HasTrailing = true
	}
	d.send(t.ServKey, msg)
	idx := d.tabs.ActiveIndex()
	d.tabs.Close(idx)
	d.ui.CloseChanTab(t.ServKey, t.Chan)
}
