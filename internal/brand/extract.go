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
	"unicode/utf8"
)

// Extract guesses the brand of a product from its name. Catalog titles lead
// with the brand ("New Look boxy shirt", "ASOS DESIGN midi dress"), so the
// leading run of capitalized words is taken. A name with no capitalized lead
// yields its first word; an empty name yields "".
func Extract(productName string) string {
	words := strings.Fields(productName)
	if len(words) == 0 {
		return ""
	}

	brandWords := make([]string, 0, 2)
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) {
			break
		}
		brandWords = append(brandWords, w)
	}

	if len(brandWords) == 0 {
		return words[0]
	}
	return strings.Join(brandWords, " ")
}
