package proto

import "strings"

const ctcpDelim byte = 0x01

// CTCP commands recognized by name (§4.1).
const (
	CTCPAction  = "ACTION"
	CTCPVersion = "VERSION"
	CTCPTime    = "TIME"
	CTCPPing    = "PING"
)

// CTCP is a decoded Client-To-Client Protocol payload carried inside a
// PRIVMSG or NOTICE.
type CTCP struct {
	Command string
	Text    string
	Reply   bool // true if carried by a NOTICE (a CTCP reply, not a request)
}

// DecodeCTCP returns the CTCP payload of m if m is a PRIVMSG/NOTICE whose
// trailing text begins and ends with 0x01, or nil otherwise.
func DecodeCTCP(m *Message) *CTCP {
	if m.Command != PRIVMSG && m.Command != NOTICE {
		return nil
	}
	text := m.Last()
	if len(text) < 2 || text[0] != ctcpDelim || text[len(text)-1] != ctcpDelim {
		return nil
	}

	body := text[1 : len(text)-1]
	sp := strings.IndexByte(body, ' ')
	if sp < 0 {
		return &CTCP{Command: strings.ToUpper(body), Reply: m.Command == NOTICE}
	}
	return &CTCP{
		Command: strings.ToUpper(body[:sp]),
		Text:    body[sp+1:],
		Reply:   m.Command == NOTICE,
	}
}

// EncodeCTCP renders a CTCP payload (without the PRIVMSG/NOTICE envelope),
// including delimiters.
func EncodeCTCP(cmd, text string) string {
	if cmd == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte(ctcpDelim)
	b.WriteString(cmd)
	if text != "" {
		b.WriteByte(' ')
		b.WriteString(text)
	}
	b.WriteByte(ctcpDelim)
	return b.String()
}

// IsAction reports whether m is a PRIVMSG carrying a CTCP ACTION.
func IsAction(m *Message) bool {
	c := DecodeCTCP(m)
	return c != nil && m.Command == PRIVMSG && c.Command == CTCPAction
}

// StripAction returns the action text of an ACTION CTCP, or the original
// trailing text if m is not an action.
func StripAction(m *Message) string {
	if c := DecodeCTCP(m); c != nil && c.Command == CTCPAction {
		return c.Text
	}
	return m.Last()
}
