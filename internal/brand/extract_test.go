//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package brand

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"two word brand", "New Look boxy shirt in white", "New Look"},
		{"single word brand", "Bershka faux leather jacket", "Bershka"},
		{"upper case brand", "ASOS DESIGN midi dress", "ASOS DESIGN"},
		{"no capitalized lead", "oversized hoodie", "oversized"},
		{"leading digit", "2 pack socks", "2"},
		{"all capitalized", "River Island", "River Island"},
		{"extra whitespace", "  Topshop   mom jeans", "Topshop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.in); got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
