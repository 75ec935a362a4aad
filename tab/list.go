package tab

import "github.com/sigpipe-irc/tirc/proto"

// List is the ordered collection of tabs with a single active index,
// enforcing invariants 1, 2 and 5 of §3.
type List struct {
	tabs   []*Tab
	active int
}

// NewList returns an empty tab list.
func NewList() *List {
	return &List{active: -1}
}

// Len returns the number of tabs.
func (l *List) Len() int { return len(l.tabs) }

// At returns the tab at idx, or nil if out of range.
func (l *List) At(idx int) *Tab {
	if idx < 0 || idx >= len(l.tabs) {
		return nil
	}
	return l.tabs[idx]
}

// All returns the underlying slice (read-only use expected).
func (l *List) All() []*Tab {
	return l.tabs
}

// IndexOf returns the index of the tab matching key, or -1.
func (l *List) IndexOf(key Key) int {
	for i, t := range l.tabs {
		if t.Key() == key {
			return i
		}
	}
	return -1
}

// Find returns the tab matching key, or nil.
func (l *List) Find(key Key) *Tab {
	if i := l.IndexOf(key); i >= 0 {
		return l.tabs[i]
	}
	return nil
}

// Active returns the currently active tab, or nil if the list is empty.
func (l *List) Active() *Tab {
	return l.At(l.active)
}

// ActiveIndex returns the active tab's index, or -1 if empty.
func (l *List) ActiveIndex() int {
	return l.active
}

// lastIndexForServer returns the index of the last tab (inclusive of the
// server tab itself) belonging to servKey, or -1 if no server tab exists.
func (l *List) lastIndexForServer(servKey string) int {
	last := -1
	for i, t := range l.tabs {
		if t.ServKey == servKey {
			last = i
		}
	}
	return last
}

// insertAfterServer inserts t immediately after the last tab of its server,
// per the creation-ordering rule (§4.5), assigning a switch key, and
// returns its index.
func (l *List) insertAfterServer(t *Tab) int {
	at := l.lastIndexForServer(t.ServKey)
	idx := at + 1
	if idx <= 0 || idx > len(l.tabs) {
		idx = len(l.tabs)
	}
	l.tabs = append(l.tabs, nil)
	copy(l.tabs[idx+1:], l.tabs[idx:])
	l.tabs[idx] = t
	l.assignSwitchKey(t)
	if l.active < 0 {
		l.active = idx
	} else if idx <= l.active {
		l.active++
	}
	return idx
}

// NewServerTab creates a server tab if one does not already exist for
// servKey, returning the existing or newly created tab.
func (l *List) NewServerTab(servKey string) *Tab {
	if t := l.Find(Key{Kind: KindServer, ServKey: servKey}); t != nil {
		return t
	}
	t := newServerTab(servKey)
	l.tabs = append(l.tabs, t)
	l.assignSwitchKey(t)
	if l.active < 0 {
		l.active = len(l.tabs) - 1
	}
	return t
}

// NewChanTab creates a channel tab, creating the server tab first if
// necessary (§4.5).
func (l *List) NewChanTab(servKey, channel string) *Tab {
	key := Key{Kind: KindChannel, ServKey: servKey, Name: foldedName(channel)}
	if t := l.Find(key); t != nil {
		return t
	}
	l.NewServerTab(servKey)
	t := newChannelTab(servKey, channel)
	l.insertAfterServer(t)
	return t
}

// NewUserTab creates a user (direct-message) tab, creating the server tab
// first if necessary (§4.5).
func (l *List) NewUserTab(servKey, nick string) *Tab {
	key := Key{Kind: KindUser, ServKey: servKey, Name: foldedName(nick)}
	if t := l.Find(key); t != nil {
		return t
	}
	l.NewServerTab(servKey)
	t := newUserTab(servKey, nick)
	l.insertAfterServer(t)
	return t
}

func foldedName(s string) string {
	return proto.FoldNick(s)
}

// Close removes the tab at idx and fixes up the active index per §3
// invariant 5 / §8 property 6: activity falls to its predecessor, or index
// 0 if the head was removed.
func (l *List) Close(idx int) *Tab {
	if idx < 0 || idx >= len(l.tabs) {
		return nil
	}
	removed := l.tabs[idx]
	l.tabs = append(l.tabs[:idx], l.tabs[idx+1:]...)

	if len(l.tabs) == 0 {
		l.active = -1
		return removed
	}

	switch {
	case idx < l.active:
		l.active--
	case idx == l.active:
		if idx == 0 {
			l.active = 0
		} else {
			l.active = idx - 1
		}
	}
	if l.active >= len(l.tabs) {
		l.active = len(l.tabs) - 1
	}
	return removed
}

// CloseServer removes the server tab servKey and every dependent
// channel/user tab (server-tab removal lifecycle, §3).
func (l *List) CloseServer(servKey string) {
	for {
		idx := -1
		for i, t := range l.tabs {
			if t.ServKey == servKey {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		l.Close(idx)
	}
}

// Select activates the tab at idx, if valid, resetting its style to Normal
// as it becomes the viewed tab.
func (l *List) Select(idx int) bool {
	if idx < 0 || idx >= len(l.tabs) {
		return false
	}
	l.active = idx
	l.tabs[idx].SetStyle(StyleNormal)
	return true
}

// Next activates the next tab, wrapping around.
func (l *List) Next() bool {
	if len(l.tabs) == 0 {
		return false
	}
	return l.Select((l.active + 1) % len(l.tabs))
}

// Prev activates the previous tab, wrapping around.
func (l *List) Prev() bool {
	if len(l.tabs) == 0 {
		return false
	}
	return l.Select((l.active - 1 + len(l.tabs)) % len(l.tabs))
}

// SwitchToSubstring activates the first tab (in order) whose visible name
// contains substr under IRC case folding (/switch, §4.7).
func (l *List) SwitchToSubstring(substr string) bool {
	for i, t := range l.tabs {
		if proto.ContainsFold(t.VisibleName(), substr) {
			return l.Select(i)
		}
	}
	return false
}

// assignSwitchKey implements the greedy minimization of §4.5/§9: iterate
// the tab's visible name, pick the first alphabetic character whose current
// assignment count across all tabs is minimal, ties broken by leftmost
// position in the name.
func (l *List) assignSwitchKey(t *Tab) {
	counts := map[byte]int{}
	for _, other := range l.tabs {
		if other == t || other.SwitchKey == 0 {
			continue
		}
		counts[other.SwitchKey]++
	}

	name := t.VisibleName()
	bestKey := byte(0)
	bestCount := -1
	for i := 0; i < len(name); i++ {
		if !isAlpha(name[i]) {
			continue
		}
		k := lowerByte(name[i])
		c := counts[k]
		if bestCount < 0 || c < bestCount {
			bestCount = c
			bestKey = k
		}
	}
	t.SwitchKey = bestKey
}
