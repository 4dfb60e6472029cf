// Package sqltext turns a raw model response into SQL text that can be sent
// to the database.
package sqltext

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const fence = "```"

// Sanitize strips Markdown code fences and a leading "sql" language tag from
// raw. When the response holds several fenced blocks, the first block that is
// non-empty after tag stripping wins; prose around the fences is discarded.
//
// The result never contains a fence and never starts with a bare "sql" token.
// An empty result means no query was produced. Sanitize does not check that
// the text is valid SQL.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, fence) {
		return stripTag(s)
	}

	// Odd segments sit between an opening and a closing fence. An unclosed
	// trailing block is still taken.
	parts := strings.Split(s, fence)
	for i := 1; i < len(parts); i += 2 {
		if block := stripTag(parts[i]); block != "" {
			return block
		}
	}
	return ""
}

func stripTag(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 3 && strings.EqualFold(s[:3], "sql") {
		if len(s) > 3 {
			r, _ := utf8.DecodeRuneInString(s[3:])
			if !unicode.IsSpace(r) {
				break
			}
		}
		s = strings.TrimSpace(s[3:])
	}
	return s
}
