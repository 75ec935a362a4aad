package proto

import "strings"

// ircCaseMap implements RFC 1459 "rfc1459" casemapping: {}|^ fold to []\~
// in addition to ASCII letters. Implementers may choose strict ASCII
// folding instead (§9); this client folds the extended set since it is a
// strict superset of ASCII folding and several networks rely on it for
// nick/channel uniqueness.
var ircCaseMap = strings.NewReplacer(
	"{", "[", "}", "]", "|", "\\", "^", "~",
)

// FoldNick returns the case-folded form of a nick or channel name used for
// comparisons everywhere nicks are matched (§3 invariant 3, §9).
func FoldNick(s string) string {
	return ircCaseMap.Replace(strings.ToLower(s))
}

// EqualFold reports whether a and b are the same nick under IRC case
// folding.
func EqualFold(a, b string) bool {
	return FoldNick(a) == FoldNick(b)
}

// ContainsFold reports whether haystack contains needle under IRC case
// folding, used for the documented (and intentionally not word-bounded,
// see SPEC_FULL §6 open question 1) highlight match.
func ContainsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(FoldNick(haystack), FoldNick(needle))
}

// channelPrefixes are membership-status sigils stripped before a nick is
// inserted into a channel's membership set (§3 invariant 4).
const channelPrefixes = "~&@%+"

// StripPrefix removes a single leading channel-status sigil from nick, if
// present.
func StripPrefix(nick string) string {
	if nick == "" {
		return nick
	}
	if strings.IndexByte(channelPrefixes, nick[0]) >= 0 {
		return nick[1:]
	}
	return nick
}

// channelSigils are the prefixes that mark a PRIVMSG/NOTICE/JOIN target as a
// channel rather than a nick.
const channelSigils = "#&+!"

// IsChannelName reports whether target names a channel rather than a nick,
// by its leading sigil.
func IsChannelName(target string) bool {
	return target != "" && strings.IndexByte(channelSigils, target[0]) >= 0
}

// SplitList splits a comma-separated JOIN/PART/QUIT parameter list fully
// (§9 open question 2 — resolved to strict splitting).
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
