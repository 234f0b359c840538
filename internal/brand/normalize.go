//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package brand

import (
	"strings"
	"unicode"
)

// Normalize maps a raw brand string to its comparison key: lower case,
// only ASCII letters, digits and single spaces, no leading or trailing
// whitespace. The empty string maps to the empty key.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := strings.TrimSpace(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	// Removing punctuation can expose new edge whitespace ("nike !"), so the
	// collapse also trims; otherwise Normalize would not be idempotent.
	return strings.Join(strings.Fields(b.String()), " ")
}
