//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package brand

import "unicode"

// SelectCanonical picks the display name for a set of equivalent spellings:
// the variant with the most upper case letters, ties going to the
// lexicographically greatest variant. It returns "" for an empty set.
//
// Official brand casing ("ASOS DESIGN") tends to carry more capitals than the
// noise around it, which is what the upper case count approximates.
func SelectCanonical(variants []string) string {
	if len(variants) == 0 {
		return ""
	}

	best := variants[0]
	bestUpper := countUpper(best)
	for _, v := range variants[1:] {
		upper := countUpper(v)
		if upper > bestUpper || (upper == bestUpper && v > best) {
			best, bestUpper = v, upper
		}
	}

	return best
}

func countUpper(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			n++
		}
	}
	return n
}
