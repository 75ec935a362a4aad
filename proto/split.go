package proto

import (
	"unicode/utf8"
)

// SplitText splits text into chunks of at most maxBytes bytes, breaking
// only on UTF-8 rune boundaries, preferring the last space within the
// budget so words are not broken mid-way when avoidable (§4.1, §4.7).
func SplitText(text string, maxBytes int) []string {
	if maxBytes <= 0 {
		return []string{text}
	}
	b := []byte(text)
	var out []string
	for len(b) > maxBytes {
		cut := lastSpace(b[:maxBytes])
		if cut <= 0 {
			cut = lastRuneBoundary(b, maxBytes)
		}
		if cut <= 0 {
			cut = maxBytes
		}
		out = append(out, string(b[:cut]))
		b = b[cut:]
	}
	out = append(out, string(b))
	return out
}

func lastSpace(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == ' ' {
			return i + 1
		}
	}
	return -1
}

// lastRuneBoundary returns the largest index <= limit that lands on a valid
// UTF-8 rune boundary within b.
func lastRuneBoundary(b []byte, limit int) int {
	if limit >= len(b) {
		return len(b)
	}
	i := limit
	for i > 0 && !utf8.RuneStart(b[i]) {
		i--
	}
	return i
}

// PRIVMSGOverhead computes the wire overhead of a "PRIVMSG <target> :<text>"
// line excluding the text itself, per §4.7: len("PRIVMSG "+target+" :\r\n"),
// plus 9 bytes (two CTCP delimiters + "ACTION ") when ctcp is true.
func PRIVMSGOverhead(target string, ctcp bool) int {
	overhead := len("PRIVMSG ") + len(target) + len(" :\r\n")
	if ctcp {
		overhead += 9
	}
	return overhead
}

// SplitPRIVMSG splits outbound text for target into chunks that will each
// fit within the 512-byte IRC line limit once framed as a PRIVMSG.
func SplitPRIVMSG(target, text string, ctcp bool) []string {
	maxText := maxLine - PRIVMSGOverhead(target, ctcp)
	if maxText <= 0 {
		return []string{text}
	}
	return SplitText(text, maxText)
}
