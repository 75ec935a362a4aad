package proto

import "bytes"

// controlBytes are filtered from the ingest buffer to avoid terminal
// glitches (§4.1). 0x01 is handled per line in Feed instead: it is kept on
// a line that decodes as CTCP and removed from every other line.
var controlBytes = [...]byte{0x00, 0x02, 0x04}

// Decoder incrementally assembles whole IRC lines out of arbitrary byte
// chunks. It retains at most one unterminated trailing fragment between
// calls (invariant 6, §3): after Feed returns, buf never holds a complete
// message.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the internal buffer, strips disallowed control
// bytes (0x01 only from lines that are not CTCP, so CTCP framing in ctcp.go
// keeps working), and
// returns every whole message terminated by CRLF (LF-only is accepted for
// leniency, per §4.1).
func (d *Decoder) Feed(chunk []byte) []*Message {
	filtered := make([]byte, 0, len(chunk))
	for _, b := range chunk {
		drop := false
		for _, c := range controlBytes {
			if b == c {
				drop = true
				break
			}
		}
		if !drop {
			filtered = append(filtered, b)
		}
	}
	d.buf = append(d.buf, filtered...)

	var out []*Message
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := d.buf[:idx]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		d.buf = d.buf[idx+1:]

		if bytes.IndexByte(line, 0x01) >= 0 {
			if msg := Parse(string(line)); msg == nil || DecodeCTCP(msg) == nil {
				line = bytes.ReplaceAll(line, []byte{0x01}, nil)
			}
		}

		if msg := Parse(string(line)); msg != nil {
			out = append(out, msg)
		}
		// Malformed lines are dropped silently here; the caller is expected
		// to log them to a debug stream (§4.1 error handling).
	}
	return out
}

// Pending returns the unterminated trailing fragment currently buffered.
func (d *Decoder) Pending() []byte {
	return d.buf
}
