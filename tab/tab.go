// Package tab implements the tab model (C5): server/channel/user tabs,
// membership, styles, switch keys, and the ordering/uniqueness invariants
// of spec §3/§4.5.
package tab

import (
	"github.com/sigpipe-irc/tirc/proto"
)

// Kind discriminates the three Tab variants. The reserved "mentions"
// pseudo-server is a KindServer tab.
type Kind int

const (
	KindServer Kind = iota
	KindChannel
	KindUser
)

// Style is the visual urgency of a tab, with precedence
// Highlight > NewMsg > Normal (§4.5).
type Style int

const (
	StyleNormal Style = iota
	StyleNewMsg
	StyleHighlight
)

// NotifyMode controls desktop-notification delivery (external collaborator;
// the tab only records the mode).
type NotifyMode int

const (
	NotifyOff NotifyMode = iota
	NotifyMentions
	NotifyMessages
)

// MentionsKey is the reserved serv_key of the pseudo-server tab that
// aggregates highlighted messages (§4.6, §9).
const MentionsKey = "mentions"

// Tab is a single logical message surface.
type Tab struct {
	Kind Kind

	ServKey string // always set
	Chan    string // KindChannel only
	Nick    string // KindUser only

	Scrollback []string
	Style      Style
	Ignore     bool
	SwitchKey  byte
	Notify     NotifyMode
	Topic      string

	// Members is the channel membership set for KindChannel tabs, keyed by
	// case-folded nick (invariant 3/4, §3).
	Members map[string]string // folded -> display nick
}

// Key uniquely identifies a tab by (kind, serv_key, name) per invariant 2.
type Key struct {
	Kind    Kind
	ServKey string
	Name    string
}

// Key returns this tab's identity key.
func (t *Tab) Key() Key {
	switch t.Kind {
	case KindChannel:
		return Key{Kind: KindChannel, ServKey: t.ServKey, Name: proto.FoldNick(t.Chan)}
	case KindUser:
		return Key{Kind: KindUser, ServKey: t.ServKey, Name: proto.FoldNick(t.Nick)}
	default:
		return Key{Kind: KindServer, ServKey: t.ServKey}
	}
}

// VisibleName returns the human-facing label used for display and for
// switch-key assignment.
func (t *Tab) VisibleName() string {
	switch t.Kind {
	case KindChannel:
		return t.Chan
	case KindUser:
		return t.Nick
	default:
		return t.ServKey
	}
}

func newServerTab(servKey string) *Tab {
	return &Tab{Kind: KindServer, ServKey: servKey}
}

func newChannelTab(servKey, channel string) *Tab {
	return &Tab{Kind: KindChannel, ServKey: servKey, Chan: channel, Members: map[string]string{}}
}

func newUserTab(servKey, nick string) *Tab {
	return &Tab{Kind: KindUser, ServKey: servKey, Nick: nick}
}

// SetStyle applies newStyle, honoring precedence: a downgrade only happens
// on an explicit request to StyleNormal (§4.5).
func (t *Tab) SetStyle(newStyle Style) {
	if newStyle == StyleNormal {
		t.Style = StyleNormal
		return
	}
	if newStyle > t.Style {
		t.Style = newStyle
	}
}

// AddMember inserts nick into a channel tab's membership set, stripping any
// leading channel-status sigil (invariant 4).
func (t *Tab) AddMember(nick string) {
	if t.Kind != KindChannel {
		return
	}
	stripped := proto.StripPrefix(nick)
	t.Members[proto.FoldNick(stripped)] = stripped
}

// RemoveMember removes nick from a channel tab's membership set.
func (t *Tab) RemoveMember(nick string) {
	if t.Kind != KindChannel {
		return
	}
	delete(t.Members, proto.FoldNick(nick))
}

// HasMember reports whether nick (any case) is present in the membership
// set.
func (t *Tab) HasMember(nick string) bool {
	if t.Kind != KindChannel {
		return false
	}
	_, ok := t.Members[proto.FoldNick(nick)]
	return ok
}

// RenameMember renames from to to in the membership set, if present.
func (t *Tab) RenameMember(from, to string) bool {
	if t.Kind != KindChannel {
		return false
	}
	if _, ok := t.Members[proto.FoldNick(from)]; !ok {
		return false
	}
	delete(t.Members, proto.FoldNick(from))
	t.Members[proto.FoldNick(to)] = to
	return true
}

// MemberNames returns the current membership, sorted is left to callers
// (this merely enumerates).
func (t *Tab) MemberNames() []string {
	out := make([]string, 0, len(t.Members))
	for _, n := range t.Members {
		out = append(out, n)
	}
	return out
}

// AppendLine appends a rendered line to scrollback.
func (t *Tab) AppendLine(line string) {
	t.Scrollback = append(t.Scrollback, line)
}

// Clear empties scrollback.
func (t *Tab) Clear() {
	t.Scrollback = nil
}

// isAlpha reports whether r is an ASCII letter, used by switch-key
// assignment.
func isAlpha(r byte) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// lowerByte lower-cases an ASCII letter.
func lowerByte(r byte) byte {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
