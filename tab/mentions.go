package tab

// Mentions returns the pseudo-server "mentions" tab, creating it if
// necessary. It is a Server-variant tab with no backing connection (§4.6,
// §9 design notes).
func (l *List) Mentions() *Tab {
	return l.NewServerTab(MentionsKey)
}
