package router

import (
	"testing"
	"time"

	"github.com/sigpipe-irc/tirc/client"
	"github.com/sigpipe-irc/tirc/proto"
	"github.com/sigpipe-irc/tirc/tab"
)

type fakeUI struct {
	newServerTabs []string
	newChanTabs   []string
	newUserTabs   []string
	privmsgs      []fakePrivmsg
	clientMsgs    []fakeLine
	clientErrs    []fakeLine
	clientNotify  []fakeLine
	msgs          []fakeLine
	errs          []fakeLine
	nicksAdded    []string
	nicksRemoved  []string
	nicksRenamed  []string
	topics        []string
	sentNicks     []string
	styles        []tab.Style
}

type fakePrivmsg struct {
	sender, msg string
	target      MsgTarget
	highlight   bool
	action      bool
}

type fakeLine struct {
	target MsgTarget
	text   string
}

func (u *fakeUI) NewServerTab(servKey string)   { u.newServerTabs = append(u.newServerTabs, servKey) }
func (u *fakeUI) CloseServerTab(string)          {}
func (u *fakeUI) NewChanTab(_, channel string)   { u.newChanTabs = append(u.newChanTabs, channel) }
func (u *fakeUI) CloseChanTab(string, string)    {}
func (u *fakeUI) NewUserTab(_, nick string)      { u.newUserTabs = append(u.newUserTabs, nick) }
func (u *fakeUI) CloseUserTab(string, string)    {}
func (u *fakeUI) SetNick(_, newNick string)      { u.sentNicks = append(u.sentNicks, newNick) }
func (u *fakeUI) AddClientMsg(t MsgTarget, text string) {
	u.clientMsgs = append(u.clientMsgs, fakeLine{t, text})
}
func (u *fakeUI) AddClientErrMsg(t MsgTarget, text string) {
	u.clientErrs = append(u.clientErrs, fakeLine{t, text})
}
func (u *fakeUI) AddClientNotifyMsg(t MsgTarget, text string) {
	u.clientNotify = append(u.clientNotify, fakeLine{t, text})
}
func (u *fakeUI) AddMsg(t MsgTarget, text string) { u.msgs = append(u.msgs, fakeLine{t, text}) }
func (u *fakeUI) AddErrMsg(t MsgTarget, text string) { u.errs = append(u.errs, fakeLine{t, text}) }
func (u *fakeUI) AddPrivmsg(sender, msg string, _ time.Time, target MsgTarget, highlight, action bool) {
	u.privmsgs = append(u.privmsgs, fakePrivmsg{sender, msg, target, highlight, action})
}
func (u *fakeUI) SetTopic(topic string, _ time.Time, _, _ string) { u.topics = append(u.topics, topic) }
func (u *fakeUI) AddNick(_, _, nick string)                       { u.nicksAdded = append(u.nicksAdded, nick) }
func (u *fakeUI) RemoveNick(_, _, nick string)                    { u.nicksRemoved = append(u.nicksRemoved, nick) }
func (u *fakeUI) RenameNick(_, _, _, to string)                   { u.nicksRenamed = append(u.nicksRenamed, to) }
func (u *fakeUI) ClearNicks(string, string)                       {}
func (u *fakeUI) Clear(MsgTarget)                                 {}
func (u *fakeUI) UserTabExists(string, string) bool                { return false }
func (u *fakeUI) SetTabStyle(style tab.Style, _ MsgTarget)         { u.styles = append(u.styles, style) }
func (u *fakeUI) Draw()                                            {}
func (u *fakeUI) ToggleIgnore(MsgTarget)                           {}
func (u *fakeUI) HandleInputEvent(any) UIEv                        { return KeyHandled{} }

type fakeNicks struct {
	nick     string
	accepted bool
}

func (n fakeNicks) CurrentNick(string) string    { return n.nick }
func (n fakeNicks) IsNickAccepted(string) bool   { return n.accepted }

type fakeSender struct {
	sent []*proto.Message
}

func (s *fakeSender) SendTo(_ string, m *proto.Message) error {
	s.sent = append(s.sent, m)
	return nil
}

func newTestRouter(nick string, accepted bool) (*Router, *fakeUI, *tab.List, *fakeSender) {
	ui := &fakeUI{}
	tabs := tab.NewList()
	sender := &fakeSender{}
	r := New(ui, tabs, fakeNicks{nick: nick, accepted: accepted}, sender)
	return r, ui, tabs, sender
}

// TestHighlightDuplicatesToMentions exercises §8 scenario 2.
func TestHighlightDuplicatesToMentions(t *testing.T) {
	r, ui, tabs, _ := newTestRouter("alice", true)
	m := proto.Parse(":bob!b@h PRIVMSG #dev :hi alice!")
	r.Handle(client.Msg{Message: m})

	if len(ui.privmsgs) != 1 || !ui.privmsgs[0].highlight {
		t.Fatalf("expected one highlighted privmsg, got %+v", ui.privmsgs)
	}
	ch := tabs.Find(chanKey("", "#dev"))
	if ch == nil || ch.Style != tab.StyleHighlight {
		t.Fatalf("expected #dev tab styled Highlight, got %+v", ch)
	}
	if len(ui.msgs) != 1 {
		t.Fatalf("expected one mentions-tab line, got %v", ui.msgs)
	}
	want := "bob in :#dev: hi alice!"
	if ui.msgs[0].text != want {
		t.Fatalf("got %q want %q", ui.msgs[0].text, want)
	}
	if tabs.Find(serverKey(tab.MentionsKey)) == nil {
		t.Fatal("expected mentions tab to be created")
	}
}

func TestNonHighlightMarksNewMsg(t *testing.T) {
	r, ui, tabs, _ := newTestRouter("alice", true)
	m := proto.Parse(":bob!b@h PRIVMSG #dev :hello everyone")
	r.Handle(client.Msg{Message: m})

	if len(ui.privmsgs) != 1 || ui.privmsgs[0].highlight {
		t.Fatalf("expected non-highlighted privmsg, got %+v", ui.privmsgs)
	}
	ch := tabs.Find(chanKey("", "#dev"))
	if ch.Style != tab.StyleNewMsg {
		t.Fatalf("expected NewMsg style, got %v", ch.Style)
	}
	if len(ui.msgs) != 0 {
		t.Fatalf("expected no mentions-tab line, got %v", ui.msgs)
	}
}

func TestDirectMessageOpensUserTab(t *testing.T) {
	r, ui, tabs, _ := newTestRouter("alice", true)
	m := proto.Parse(":bob!b@h PRIVMSG alice :hey there")
	r.Handle(client.Msg{Message: m})

	if tabs.Find(userKey("", "bob")) == nil {
		t.Fatal("expected a User tab for bob")
	}
	if len(ui.newUserTabs) != 1 || ui.newUserTabs[0] != "bob" {
		t.Fatalf("expected NewUserTab(bob), got %v", ui.newUserTabs)
	}
	if len(ui.privmsgs) != 1 || ui.privmsgs[0].sender != "bob" {
		t.Fatalf("unexpected privmsgs: %+v", ui.privmsgs)
	}
}

func TestNoticeWithoutUserTabFallsBackToServer(t *testing.T) {
	r, ui, _, _ := newTestRouter("alice", true)
	m := proto.Parse(":bob!b@h NOTICE alice :fyi")
	r.Handle(client.Msg{Message: m})

	if len(ui.msgs) != 1 {
		t.Fatalf("expected a server-tab message, got privmsgs=%v msgs=%v", ui.privmsgs, ui.msgs)
	}
	if len(ui.newUserTabs) != 0 {
		t.Fatalf("expected no User tab created, got %v", ui.newUserTabs)
	}
}

func TestJoinOpensOwnChannelAndTracksOthers(t *testing.T) {
	r, ui, tabs, _ := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":alice!a@h JOIN #dev")})
	if tabs.Find(chanKey("", "#dev")) == nil {
		t.Fatal("expected #dev tab after self-join")
	}
	if len(ui.newChanTabs) != 1 {
		t.Fatalf("expected one NewChanTab call, got %v", ui.newChanTabs)
	}

	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h JOIN #dev")})
	ch := tabs.Find(chanKey("", "#dev"))
	if !ch.HasMember("bob") {
		t.Fatal("expected bob added to membership")
	}
	if len(ui.nicksAdded) != 1 || ui.nicksAdded[0] != "bob" {
		t.Fatalf("expected AddNick(bob), got %v", ui.nicksAdded)
	}
}

// TestNamesReplyPopulatesMembership exercises §8 scenario 5.
func TestNamesReplyPopulatesMembership(t *testing.T) {
	r, _, tabs, _ := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":alice!a@h JOIN #dev")})
	r.Handle(client.Msg{Message: proto.Parse(":s 353 alice = #dev :@bob alice +carol")})
	r.Handle(client.Msg{Message: proto.Parse(":s 366 alice #dev :End of /NAMES list.")})

	ch := tabs.Find(chanKey("", "#dev"))
	for _, n := range []string{"alice", "bob", "carol"} {
		if !ch.HasMember(n) {
			t.Fatalf("expected member %q, got %v", n, ch.Members)
		}
	}
}

func TestQuitRemovesFromAllChannelsAndUserTab(t *testing.T) {
	r, ui, tabs, _ := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":alice!a@h JOIN #a")})
	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h JOIN #a")})
	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h PRIVMSG alice :hi")}) // opens user tab for bob

	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h QUIT :bye")})

	ch := tabs.Find(chanKey("", "#a"))
	if ch.HasMember("bob") {
		t.Fatal("expected bob removed from #a membership")
	}
	if len(ui.nicksRemoved) != 1 || ui.nicksRemoved[0] != "bob" {
		t.Fatalf("expected RemoveNick(bob), got %v", ui.nicksRemoved)
	}
	if len(ui.clientMsgs) == 0 {
		t.Fatal("expected a quit notice on bob's user tab")
	}
}

func TestNickRenameUpdatesMembership(t *testing.T) {
	r, ui, tabs, _ := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":alice!a@h JOIN #a")})
	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h JOIN #a")})
	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h NICK bobby")})

	ch := tabs.Find(chanKey("", "#a"))
	if !ch.HasMember("bobby") || ch.HasMember("bob") {
		t.Fatalf("expected membership renamed, got %v", ch.Members)
	}
	if len(ui.nicksRenamed) != 1 || ui.nicksRenamed[0] != "bobby" {
		t.Fatalf("expected RenameNick to bobby, got %v", ui.nicksRenamed)
	}
}

func TestTopicReplyAndLiveTopicSetTabTopic(t *testing.T) {
	r, ui, tabs, _ := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":s 332 alice #dev :welcome to dev")})
	ch := tabs.Find(chanKey("", "#dev"))
	if ch == nil || ch.Topic != "welcome to dev" {
		t.Fatalf("expected topic set via 332, got %+v", ch)
	}

	r.Handle(client.Msg{Message: proto.Parse(":alice!a@h TOPIC #dev :new topic")})
	if ch.Topic != "new topic" {
		t.Fatalf("expected topic updated via TOPIC, got %q", ch.Topic)
	}
	if len(ui.topics) != 2 {
		t.Fatalf("expected two SetTopic calls, got %d", len(ui.topics))
	}
}

func TestCTCPVersionRepliesAndNotifies(t *testing.T) {
	r, ui, _, sender := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h PRIVMSG alice :\x01VERSION\x01")})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one outbound reply, got %d", len(sender.sent))
	}
	if sender.sent[0].Command != proto.NOTICE {
		t.Fatalf("expected NOTICE reply, got %s", sender.sent[0].Command)
	}
	ctcp := proto.DecodeCTCP(sender.sent[0])
	if ctcp == nil || ctcp.Command != proto.CTCPVersion {
		t.Fatalf("expected a VERSION CTCP reply, got %+v", ctcp)
	}
	if len(ui.clientNotify) != 1 {
		t.Fatalf("expected a client notify line, got %v", ui.clientNotify)
	}
}

func TestCTCPActionRendersAsAction(t *testing.T) {
	r, ui, _, _ := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":bob!b@h PRIVMSG #dev :\x01ACTION waves\x01")})

	if len(ui.privmsgs) != 1 || !ui.privmsgs[0].action || ui.privmsgs[0].msg != "waves" {
		t.Fatalf("expected action privmsg, got %+v", ui.privmsgs)
	}
}

func TestNicknameInUseSuppressedBeforeAcceptance(t *testing.T) {
	r, ui, _, _ := newTestRouter("alice", false)
	r.Handle(client.Msg{Message: proto.Parse(":s 433 * alice :Nickname is already in use")})
	if len(ui.clientErrs) != 0 {
		t.Fatalf("expected no error while nick negotiation is in progress, got %v", ui.clientErrs)
	}

	r2, ui2, _, _ := newTestRouter("alice", true)
	r2.Handle(client.Msg{Message: proto.Parse(":s 433 alice bob :Nickname is already in use")})
	if len(ui2.clientErrs) != 1 {
		t.Fatalf("expected an error once nick is accepted, got %v", ui2.clientErrs)
	}
}

func TestWelcomeAndMotdRenderToServerTab(t *testing.T) {
	r, ui, _, _ := newTestRouter("alice", true)
	r.Handle(client.Msg{Message: proto.Parse(":s 001 alice :Welcome to the network")})
	r.Handle(client.Msg{Message: proto.Parse(":s 375 alice :- s Message of the Day -")})
	r.Handle(client.Msg{Message: proto.Parse(":s 376 alice :End of /MOTD command.")})

	if len(ui.msgs) != 3 {
		t.Fatalf("expected 3 server-tab lines, got %d: %v", len(ui.msgs), ui.msgs)
	}
}
