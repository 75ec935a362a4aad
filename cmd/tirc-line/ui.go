package main

import (
	"fmt"
	"time"

	"github.com/sigpipe-irc/tirc/proto"
	"github.com/sigpipe-irc/tirc/router"
	"github.com/sigpipe-irc/tirc/tab"
)

// lineUI is a minimal line-mode implementation of the §6.2 UI contract: it
// keeps each tab's scrollback and prints every rendered line to stdout,
// prefixing lines from a tab other than the active one with its label so
// background activity is never silently lost.
type lineUI struct {
	tabs *tab.List

	// stripFormat strips mIRC control codes before printing (SPEC_FULL §4
	// item 4), on by default.
	stripFormat bool
}

func newLineUI(tabs *tab.List) *lineUI {
	return &lineUI{tabs: tabs, stripFormat: true}
}

func (u *lineUI) println(s string) {
	if u.stripFormat {
		s = proto.StripFormatting(s)
	}
	fmt.Println(s)
}

func tabLabel(t *tab.Tab) string {
	switch t.Kind {
	case tab.KindChannel:
		return t.ServKey + "/" + t.Chan
	case tab.KindUser:
		return t.ServKey + "/" + t.Nick
	default:
		return t.ServKey
	}
}

// resolveTabs maps a MsgTarget to the concrete tabs it addresses. Server,
// Channel and User resolve to exactly one existing tab (or none, if it does
// not exist yet); AllServTabs/AllUserTabs can resolve to several.
func (u *lineUI) resolveTabs(target router.MsgTarget) []*tab.Tab {
	switch t := target.(type) {
	case router.Server:
		if tb := u.tabs.Find(tab.Key{Kind: tab.KindServer, ServKey: t.ServKey()}); tb != nil {
			return []*tab.Tab{tb}
		}
	case router.Channel:
		key := tab.Key{Kind: tab.KindChannel, ServKey: t.ServKey(), Name: proto.FoldNick(t.Chan)}
		if tb := u.tabs.Find(key); tb != nil {
			return []*tab.Tab{tb}
		}
	case router.User:
		key := tab.Key{Kind: tab.KindUser, ServKey: t.ServKey(), Name: proto.FoldNick(t.Nick)}
		if tb := u.tabs.Find(key); tb != nil {
			return []*tab.Tab{tb}
		}
	case router.AllServTabs:
		var out []*tab.Tab
		for _, tb := range u.tabs.All() {
			if tb.ServKey == t.ServKey() {
				out = append(out, tb)
			}
		}
		return out
	case router.AllUserTabs:
		var out []*tab.Tab
		for _, tb := range u.tabs.All() {
			if tb.ServKey != t.ServKey() {
				continue
			}
			if tb.Kind == tab.KindUser && proto.EqualFold(tb.Nick, t.Nick) {
				out = append(out, tb)
			}
			if tb.Kind == tab.KindChannel && tb.HasMember(t.Nick) {
				out = append(out, tb)
			}
		}
		return out
	case router.CurrentTab:
		if active := u.tabs.Active(); active != nil {
			return []*tab.Tab{active}
		}
	}
	return nil
}

// emit appends text to every tab the target resolves to and prints it,
// labeling it when the tab isn't presently active. A target resolving to no
// tab (e.g. a server tab not yet created) is still printed unlabeled.
func (u *lineUI) emit(target router.MsgTarget, text string) {
	tbs := u.resolveTabs(target)
	if len(tbs) == 0 {
		u.println(text)
		return
	}
	active := u.tabs.Active()
	for _, tb := range tbs {
		tb.AppendLine(text)
		if tb == active {
			u.println(text)
		} else {
			u.println("[" + tabLabel(tb) + "] " + text)
		}
	}
}

func (u *lineUI) NewServerTab(servKey string) {
	u.println("-!- " + servKey + ": tab opened")
}

func (u *lineUI) CloseServerTab(servKey string) {
	u.println("-!- " + servKey + ": tab closed")
}

func (u *lineUI) NewChanTab(servKey, channel string) {
	u.println("-!- " + servKey + "/" + channel + ": tab opened")
}

func (u *lineUI) CloseChanTab(servKey, channel string) {
	u.println("-!- " + servKey + "/" + channel + ": tab closed")
}

func (u *lineUI) NewUserTab(servKey, nick string) {
	u.println("-!- " + servKey + "/" + nick + ": tab opened")
}

func (u *lineUI) CloseUserTab(servKey, nick string) {
	u.println("-!- " + servKey + "/" + nick + ": tab closed")
}

func (u *lineUI) SetNick(servKey, newNick string) {
	u.println("-!- " + servKey + ": now known as " + newNick)
}

func (u *lineUI) AddClientMsg(target router.MsgTarget, text string) {
	u.emit(target, "-!- "+text)
}

func (u *lineUI) AddClientErrMsg(target router.MsgTarget, text string) {
	u.emit(target, "-!- error: "+text)
}

func (u *lineUI) AddClientNotifyMsg(target router.MsgTarget, text string) {
	u.emit(target, "-!- "+text)
}

func (u *lineUI) AddMsg(target router.MsgTarget, text string) {
	u.emit(target, text)
}

func (u *lineUI) AddErrMsg(target router.MsgTarget, text string) {
	u.emit(target, "-!- error: "+text)
}

func (u *lineUI) AddPrivmsg(sender, msg string, ts time.Time, target router.MsgTarget, highlight, action bool) {
	stamp := ts.Format("15:04")
	var line string
	switch {
	case action:
		line = fmt.Sprintf("%s * %s %s", stamp, sender, msg)
	case highlight:
		line = fmt.Sprintf("%s *%s* %s", stamp, sender, msg)
	default:
		line = fmt.Sprintf("%s <%s> %s", stamp, sender, msg)
	}
	u.emit(target, line)
}

func (u *lineUI) SetTopic(topic string, ts time.Time, servKey, channel string) {
	key := tab.Key{Kind: tab.KindChannel, ServKey: servKey, Name: proto.FoldNick(channel)}
	if tb := u.tabs.Find(key); tb != nil {
		tb.Topic = topic
	}
	u.println(fmt.Sprintf("-!- %s/%s: topic set to %q", servKey, channel, topic))
}

func (u *lineUI) AddNick(servKey, channel, nick string) {
	u.println("-!- " + servKey + "/" + channel + ": " + nick + " joined")
}

func (u *lineUI) RemoveNick(servKey, channel, nick string) {
	u.println("-!- " + servKey + "/" + channel + ": " + nick + " left")
}

func (u *lineUI) RenameNick(servKey, channel, from, to string) {
	u.println("-!- " + servKey + "/" + channel + ": " + from + " is now known as " + to)
}

func (u *lineUI) ClearNicks(servKey, channel string) {}

func (u *lineUI) Clear(target router.MsgTarget) {
	for _, tb := range u.resolveTabs(target) {
		tb.Clear()
	}
}

func (u *lineUI) UserTabExists(servKey, nick string) bool {
	key := tab.Key{Kind: tab.KindUser, ServKey: servKey, Name: proto.FoldNick(nick)}
	return u.tabs.Find(key) != nil
}

func (u *lineUI) SetTabStyle(style tab.Style, target router.MsgTarget) {
	for _, tb := range u.resolveTabs(target) {
		tb.SetStyle(style)
	}
}

func (u *lineUI) Draw() {}

func (u *lineUI) ToggleIgnore(target router.MsgTarget) {
	tbs := u.resolveTabs(target)
	if len(tbs) == 0 {
		return
	}
	state := "enabled"
	if !tbs[0].Ignore {
		state = "disabled"
	}
	u.println(fmt.Sprintf("-!- ignore %s for %s", state, tabLabel(tbs[0])))
}

// HandleInputEvent is unused by this front end: liner owns line editing and
// hands complete lines straight to the input dispatcher (main.go's
// readInput loop), so no raw key events ever reach the router this way.
func (u *lineUI) HandleInputEvent(ev any) router.UIEv {
	return router.KeyHandled{}
}
