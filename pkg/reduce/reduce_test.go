// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package reduce_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/cshrink/pkg/reduce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grepX is an oracle that accepts iff the program still contains X.
const grepX = "#!/bin/sh\ngrep X test.c >/dev/null\n"

// runReduce reduces input with the given oracle script and methods and
// returns the final program text.
func runReduce(t *testing.T, input, oracle string, methods ...string) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "test.c")
	require.NoError(t, os.WriteFile(file, []byte(input), 0644))
	oraclePath := filepath.Join(dir, "oracle.sh")
	require.NoError(t, os.WriteFile(oraclePath, []byte(oracle), 0755))
	require.NoError(t, reduce.Run(&reduce.Config{
		Oracle:  oraclePath,
		File:    file,
		Methods: methods,
	}))
	final, err := os.ReadFile(file)
	require.NoError(t, err)

	orig, err := os.ReadFile(file + ".orig")
	require.NoError(t, err)
	// The backup must hold the final accepted program, and the sentinels
	// must have survived the whole run.
	bak, err := os.ReadFile(file + ".bak")
	require.NoError(t, err)
	assert.Equal(t, final, bak)
	assert.Equal(t, byte(' '), final[0])
	assert.Equal(t, byte(' '), final[len(final)-1])
	assert.GreaterOrEqual(t, len(orig), len(final))
	return string(final)
}

func TestBrackets(t *testing.T) {
	got := runReduce(t, " int main(void){int x; X; return 0;} ", grepX, "brackets")
	assert.Equal(t, " int main(void)int x; X; return 0; ", got)
}

func TestParensWholeSpan(t *testing.T) {
	got := runReduce(t, " a = (b + c); X ", grepX, "parens")
	assert.Equal(t, " a = ; X ", got)
}

func TestParensKeepContents(t *testing.T) {
	// This oracle also requires b, so deleting the whole parenthesized span
	// is rejected and only the bracket characters go.
	oracle := "#!/bin/sh\ngrep X test.c >/dev/null && grep b test.c >/dev/null\n"
	got := runReduce(t, " a = (b + c); X ", oracle, "parens")
	assert.Equal(t, " a = b + c; X ", got)
}

func TestShortenInts(t *testing.T) {
	got := runReduce(t, " int x = 0x1ULL; X ", grepX, "shorten_ints")
	assert.Equal(t, " int x = 1; X ", got)
}

func TestTernaryFirstBranch(t *testing.T) {
	got := runReduce(t, " a ? b : c ; X ", grepX, "ternary")
	assert.Equal(t, " b ; X ", got)
}

func TestTernarySecondBranch(t *testing.T) {
	oracle := "#!/bin/sh\ngrep X test.c >/dev/null && grep c test.c >/dev/null\n"
	got := runReduce(t, " a ? b : c ; X ", oracle, "ternary")
	assert.Equal(t, " c ; X ", got)
}

func TestCrc(t *testing.T) {
	got := runReduce(t, " transparent_crc(g_1, \"x\", 0); X ", grepX, "crc")
	assert.Equal(t, " printf (\"%d\\n\", (int)g_1); X ", got)
}

func TestAllBlanks(t *testing.T) {
	got := runReduce(t, " a  b:c ,d  X ", grepX, "all_blanks")
	assert.Equal(t, " a b:\nc , d X ", got)
}

func TestBlanks(t *testing.T) {
	got := runReduce(t, " a \t b  X ", grepX, "blanks")
	assert.Equal(t, " a b X ", got)
}

func TestMoveFunc(t *testing.T) {
	got := runReduce(t, " int foo(int); X int foo(int a){return a;} ", grepX, "move_func")
	assert.Equal(t, " int foo(int a){return a;} X  ", got)
}

func TestReplaceRegexDecl(t *testing.T) {
	got := runReduce(t, " int x ; X ", grepX, "replace_regex")
	assert.Equal(t, "  X ", got)
}

func TestReplaceRegexExpr(t *testing.T) {
	got := runReduce(t, " y = a + b ; X ", grepX, "replace_regex")
	assert.Contains(t, got, "X")
	assert.Less(t, len(got), len(" y = a + b ; X "))
}

func TestRejectedTrialsRestore(t *testing.T) {
	// The oracle accepts only the original program, so every candidate is
	// rejected and the file must come out byte-identical.
	oracle := "#!/bin/sh\ncmp -s test.c test.c.orig\n"
	got := runReduce(t, " a = (b + c); X ", oracle, "parens", "replace_regex")
	assert.Equal(t, " a = (b + c); X ", got)
}

func TestEmptyProgram(t *testing.T) {
	oracle := "#!/bin/sh\nexit 0\n"
	got := runReduce(t, "", oracle, "blanks", "parens", "brackets", "ternary",
		"shorten_ints", "replace_regex", "crc", "move_func", "del_args", "all_blanks")
	assert.Equal(t, " ", got)
}

func TestDelArgsOnlyAdvances(t *testing.T) {
	// del_args records function names but performs no edits yet.
	input := " int foo(int); int foo(int a){return a;} X "
	got := runReduce(t, input, grepX, "del_args")
	assert.Equal(t, input, got)
}

func TestAcceptEverything(t *testing.T) {
	// With an oracle that accepts anything the driver must still reach a
	// fixpoint and terminate.
	oracle := "#!/bin/sh\nexit 0\n"
	got := runReduce(t, " a = b + c ; ", oracle, "replace_regex", "blanks")
	assert.Less(t, len(got), len(" a = b + c ; "))
}

func TestUnknownMethod(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.c")
	require.NoError(t, os.WriteFile(file, []byte("X"), 0644))
	oraclePath := filepath.Join(dir, "oracle.sh")
	require.NoError(t, os.WriteFile(oraclePath, []byte(grepX), 0755))
	err := reduce.Run(&reduce.Config{
		Oracle:  oraclePath,
		File:    file,
		Methods: []string{"no_such_method"},
	})
	assert.Error(t, err)
}

func TestBadOracle(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.c")
	require.NoError(t, os.WriteFile(file, []byte("X"), 0644))
	// Not executable.
	oraclePath := filepath.Join(dir, "oracle.sh")
	require.NoError(t, os.WriteFile(oraclePath, []byte(grepX), 0644))
	err := reduce.Run(&reduce.Config{
		Oracle:  oraclePath,
		File:    file,
		Methods: []string{"parens"},
	})
	assert.Error(t, err)

	err = reduce.Run(&reduce.Config{
		Oracle:  filepath.Join(dir, "missing.sh"),
		File:    file,
		Methods: []string{"parens"},
	})
	assert.Error(t, err)
}

func TestMethodNames(t *testing.T) {
	names := reduce.MethodNames()
	assert.Contains(t, names, "replace_regex")
	assert.Contains(t, names, "all_blanks")
	assert.Contains(t, names, "indent")
	assert.Len(t, names, 11)
}
