package router

import (
	"time"

	"github.com/sigpipe-irc/tirc/tab"
)

// UIEv is an input event handed back from UI.HandleInputEvent to the input
// dispatcher (§6.2).
type UIEv interface{ isUIEv() }

type Abort struct{}
type KeyHandled struct{}
type KeyIgnored struct{ Key rune }
type EventIgnored struct{ Event any }
type Input struct {
	Chars string
	From  int
}
type Lines struct {
	Lines []string
	From  int
}

func (Abort) isUIEv()        {}
func (KeyHandled) isUIEv()   {}
func (KeyIgnored) isUIEv()   {}
func (EventIgnored) isUIEv() {}
func (Input) isUIEv()        {}
func (Lines) isUIEv()        {}

// UI is the renderer contract the router drives (§6.2). cmd/tirc-line's
// line-mode terminal is one implementation; any other front end satisfying
// this interface can replace it without touching the router.
type UI interface {
	NewServerTab(servKey string)
	CloseServerTab(servKey string)
	NewChanTab(servKey, channel string)
	CloseChanTab(servKey, channel string)
	NewUserTab(servKey, nick string)
	CloseUserTab(servKey, nick string)
	SetNick(servKey, newNick string)

	AddClientMsg(target MsgTarget, text string)
	AddClientErrMsg(target MsgTarget, text string)
	AddClientNotifyMsg(target MsgTarget, text string)
	AddMsg(target MsgTarget, text string)
	AddErrMsg(target MsgTarget, text string)
	AddPrivmsg(sender, msg string, ts time.Time, target MsgTarget, highlight, action bool)

	SetTopic(topic string, ts time.Time, servKey, channel string)

	AddNick(servKey, channel, nick string)
	RemoveNick(servKey, channel, nick string)
	RenameNick(servKey, channel, from, to string)
	ClearNicks(servKey, channel string)

	Clear(target MsgTarget)
	UserTabExists(servKey, nick string) bool
	SetTabStyle(style tab.Style, target MsgTarget)
	Draw()
	ToggleIgnore(target MsgTarget)

	HandleInputEvent(ev any) UIEv
}
