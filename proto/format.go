package proto

import "strings"

// mIRC control codes: bold, color, italic, underline, reset, reverse.
const (
	ctrlBold      = 0x02
	ctrlColor     = 0x03
	ctrlItalic    = 0x1D
	ctrlUnderline = 0x1F
	ctrlReset     = 0x0F
	ctrlReverse   = 0x16
)

// StripFormatting removes mIRC control codes (and any associated color
// digit arguments) from s, for renderers that do not interpret them.
func StripFormatting(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case ctrlBold, ctrlItalic, ctrlUnderline, ctrlReset, ctrlReverse:
			continue
		case ctrlColor:
			// Consume up to two foreground digits, optional comma, up to
			// two background digits.
			i++
			digits := 0
			for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' && digits < 2 {
				i++
				digits++
			}
			if i < len(runes) && runes[i] == ',' {
				j := i + 1
				bgDigits := 0
				for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' && bgDigits < 2 {
					j++
					bgDigits++
				}
				if bgDigits > 0 {
					i = j
				}
			}
			i-- // compensate for loop increment
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
