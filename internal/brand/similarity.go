//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package brand

// Ratio returns the edit similarity of a and b on a 0-100 scale.
//
// The score is the normalized Indel similarity (Levenshtein distance where a
// substitution costs a deletion plus an insertion):
//
//	100 * (1 - indel(a, b) / (len(a) + len(b)))  ==  200 * lcs(a, b) / (len(a) + len(b))
//
// Two empty strings are identical and score 100.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}

	return float64(200*lcsLength(ra, rb)) / float64(total)
}

// IndelDistance returns the number of single-rune insertions and deletions
// needed to turn a into b.
func IndelDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	return len(ra) + len(rb) - 2*lcsLength(ra, rb)
}

// lcsLength computes the longest common subsequence length with two rolling
// rows of the dynamic programming table.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prevRow := make([]int, len(b)+1)
	row := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		row[0] = 0
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				row[j] = prevRow[j-1] + 1
			} else {
				row[j] = max(row[j-1], prevRow[j])
			}
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
