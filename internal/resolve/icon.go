package resolve

import (
	"unicode"
	"unicode/utf8"
)

// IconRule names the rule that accepted (or rejected) an icon.
type IconRule string

const (
	RuleRejected IconRule = ""
	RuleEmoji    IconRule = "emoji"
	RuleFallback IconRule = "fallback"
)

// MaxIconLen is the longest accepted icon, counted in runes.
const MaxIconLen = 10

// pictographic covers the emoji blocks people actually type.  ASCII digits,
// '#', and '*' carry the Unicode Emoji property too but are left out so a
// plain-text icon only ever passes by the fallback rule.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00a9, Hi: 0x00a9, Stride: 1},
		{Lo: 0x00ae, Hi: 0x00ae, Stride: 1},
		{Lo: 0x203c, Hi: 0x203c, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x21aa, Stride: 1},
		{Lo: 0x231a, Hi: 0x23ff, Stride: 1},
		{Lo: 0x24c2, Hi: 0x24c2, Stride: 1},
		{Lo: 0x25aa, Hi: 0x25fe, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3299, Stride: 2},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
	},
	LatinOffset: 2,
}

// CheckIcon validates a display icon.  Anything longer than MaxIconLen
// runes is rejected.  A string holding at least one emoji passes by the
// emoji rule; any other non-empty string passes by the fallback rule.
func CheckIcon(s string) (bool, IconRule) {
	n := utf8.RuneCountInString(s)
	if n > MaxIconLen {
		return false, RuleRejected
	}
	for _, r := range s {
		if unicode.Is(pictographic, r) {
			return true, RuleEmoji
		}
	}
	if n >= 1 {
		return true, RuleFallback
	}
	return false, RuleRejected
}

// ValidIcon reports whether s is an acceptable icon.
func ValidIcon(s string) bool {
	ok, _ := CheckIcon(s)
	return ok
}
