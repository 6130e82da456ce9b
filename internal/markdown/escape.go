// Package markdown renders arbitrary provider output safe for a
// MarkdownV2 parse mode: every reserved character outside a code span
// gets a backslash prefix, code spans pass through byte-for-byte.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// reserved is the MarkdownV2 control set.
const reserved = "_*[]()~`>#+-=|{}.!"

var (
	fencedRe = regexp.MustCompile("(?s)```.+?```")
	inlineRe = regexp.MustCompile("(?s)`.+?`")
	// Placeholders carry an index and are NUL-delimited so real text
	// cannot collide with them; NUL never survives a JSON/HTTP round
	// trip from a provider.
	tokenRe = regexp.MustCompile("\x00([fi])([0-9]+)\x00")
)

// Escape escapes the reserved set across plain text while preserving
// fenced and inline code spans verbatim. Fenced spans are extracted
// first (non-overlapping, leftmost-first), then inline spans from the
// remainder, then the rest is escaped and the spans restored in reverse
// order.
func Escape(s string) string {
	var fenced, inline []string

	s = fencedRe.ReplaceAllStringFunc(s, func(block string) string {
		fenced = append(fenced, block)
		return token('f', len(fenced)-1)
	})
	s = inlineRe.ReplaceAllStringFunc(s, func(span string) string {
		inline = append(inline, span)
		return token('i', len(inline)-1)
	})

	var sb strings.Builder
	sb.Grow(len(s) + len(s)/4)
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(reserved, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	s = sb.String()

	restore := func(s string) string {
		return tokenRe.ReplaceAllStringFunc(s, func(tok string) string {
			m := tokenRe.FindStringSubmatch(tok)
			idx := atoi(m[2])
			if m[1] == "f" {
				if idx < len(fenced) {
					return fenced[idx]
				}
				return tok
			}
			if idx < len(inline) {
				return inline[idx]
			}
			return tok
		})
	}
	// An inline span may hold a fenced token when a fence sat inside
	// backticks in the source, so restore twice: inline spans cannot
	// nest further.
	return restore(restore(s))
}

func token(kind byte, idx int) string {
	return fmt.Sprintf("\x00%c%d\x00", kind, idx)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
