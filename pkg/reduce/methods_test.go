// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package reduce

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		input string
		want  string // "" means no change
	}{
		{"a  b", "a b"},
		{"a \t b", "a b"},
		{"a b", ""},
		{"a\nb", ""},
		{"a\n\nb", "a b"},
		{"  ", " "},
		{"ab", ""},
	}
	for _, test := range tests {
		got := collapseSpace([]byte(test.input))
		if test.want == "" {
			if got != nil {
				t.Errorf("collapseSpace(%q) = %q, want no change", test.input, got)
			}
			continue
		}
		if string(got) != test.want {
			t.Errorf("collapseSpace(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestBreakAfterColons(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a:b", "a:\nb"},
		{"a: b", ""},
		{"a:\nb", ""},
		{"a:", ""},
		{"x:y:z", "x:\ny:\nz"},
	}
	for _, test := range tests {
		got := breakAfterColons([]byte(test.input))
		if test.want == "" {
			if got != nil {
				t.Errorf("breakAfterColons(%q) = %q, want no change", test.input, got)
			}
			continue
		}
		if string(got) != test.want {
			t.Errorf("breakAfterColons(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestPadCommas(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a,b", "a , b"},
		{"a ,b", "a , b"},
		{"a  ,  b", "a , b"},
		{"a , b", ""},
		{"ab", ""},
	}
	for _, test := range tests {
		got := padCommas([]byte(test.input))
		if test.want == "" {
			if got != nil {
				t.Errorf("padCommas(%q) = %q, want no change", test.input, got)
			}
			continue
		}
		if string(got) != test.want {
			t.Errorf("padCommas(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

// The three whitespace edits together must be idempotent: a second
// application changes nothing.
func TestAllBlanksIdempotent(t *testing.T) {
	data := []byte(" a  b:c ,d  X ")
	for _, fn := range []func([]byte) []byte{collapseSpace, breakAfterColons, padCommas} {
		if out := fn(data); out != nil {
			data = out
		}
	}
	if diff := cmp.Diff(" a b:\nc , d X ", string(data)); diff != "" {
		t.Fatalf("first application: %v", diff)
	}
	for _, fn := range []func([]byte) []byte{collapseSpace, breakAfterColons, padCommas} {
		if out := fn(data); out != nil {
			t.Fatalf("second application changed the buffer: %q -> %q", data, out)
		}
	}
}

func TestFirstArg(t *testing.T) {
	tests := []struct {
		args string
		want string
	}{
		{`g_1, "x", 0`, "g_1"},
		{`g_1`, "g_1"},
		{`f(a, b), c`, "f(a, b)"},
		{`a[1][2], b`, "a[1][2]"},
		{` x `, "x"},
		{``, ""},
	}
	for _, test := range tests {
		if got := string(firstArg([]byte(test.args))); got != test.want {
			t.Errorf("firstArg(%q) = %q, want %q", test.args, got, test.want)
		}
	}
}
