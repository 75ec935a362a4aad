package proto

import "testing"

func TestParseBasic(t *testing.T) {
	m := Parse(":bob!b@h PRIVMSG #dev :hi alice!")
	if m == nil {
		t.Fatal("expected non-nil message")
	}
	if m.Source == nil || m.Source.Name != "bob" || m.Source.User != "b" || m.Source.Host != "h" {
		t.Fatalf("bad source: %+v", m.Source)
	}
	if m.Command != "PRIVMSG" {
		t.Fatalf("bad command: %q", m.Command)
	}
	if len(m.Params) != 1 || m.Params[0] != "#dev" {
		t.Fatalf("bad params: %v", m.Params)
	}
	if m.Trailing != "hi alice!" {
		t.Fatalf("bad trailing: %q", m.Trailing)
	}
}

func TestParseNoTrailing(t *testing.T) {
	m := Parse("PING irc.example.net")
	if m == nil || m.Command != "PING" || len(m.Params) != 1 || m.Params[0] != "irc.example.net" {
		t.Fatalf("bad parse: %+v", m)
	}
}

func TestParsePingColon(t *testing.T) {
	m := Parse("PING :irc.example.net")
	if m == nil || m.Trailing != "irc.example.net" {
		t.Fatalf("bad parse: %+v", m)
	}
	out := string(Encode(m))
	if out != "PING :irc.example.net\r\n" {
		t.Fatalf("bad encode: %q", out)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		":irc.example.net 001 alice :Welcome",
		":alice!a@h JOIN #dev",
		":s 433 * alice :Nickname is already in use.",
		"CAP LS 302",
	}
	for _, raw := range cases {
		m := Parse(raw)
		if m == nil {
			t.Fatalf("failed to parse %q", raw)
		}
		m2 := Parse(m.String())
		if m2 == nil {
			t.Fatalf("failed to reparse %q", m.String())
		}
		if m.String() != m2.String() {
			t.Fatalf("round trip mismatch: %q != %q", m.String(), m2.String())
		}
	}
}

func TestIsReply(t *testing.T) {
	m := Parse(":s 001 alice :hi")
	if !m.IsReply() {
		t.Fatal("expected reply")
	}
	m2 := Parse("PRIVMSG #dev :hi")
	if m2.IsReply() {
		t.Fatal("did not expect reply")
	}
}

func TestEncodeTruncates(t *testing.T) {
	huge := make([]byte, 1000)
	for i := range huge {
		huge[i] = 'x'
	}
	m := &Message{Command: "PRIVMSG", Params: []string{"#dev"}, Trailing: string(huge), HasTrailing: true}
	out := Encode(m)
	if len(out) > maxLine {
		t.Fatalf("encoded line too long: %d", len(out))
	}
	if out[len(out)-2] != '\r' || out[len(out)-1] != '\n' {
		t.Fatalf("missing CRLF terminator: %q", out)
	}
}
