// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package reduce

import (
	"github.com/google/cshrink/pkg/cpatt"
)

// A rule is one textual rewrite of the replace_regex method: a pattern
// anchored at the sweep position and a fixed replacement. Unbounded rules
// apply wherever the pattern matches; delimited rules additionally require a
// border character or whitespace on both sides of the match.
type rule struct {
	name  string
	repl  string
	match func(data []byte, pos int) (int, bool)
	ok    int
	fail  int
}

// replaceRegex offers every matching rule at pos as a candidate edit, in
// catalogue order. A rejected candidate is reverted and the next rule is
// tried within the same call.
func (ctx *Context) replaceRegex(pos int) (bool, int) {
	worked := false
	for _, r := range ctx.unbounded {
		if ctx.applyRule(r, pos, false) {
			worked = true
		}
	}
	for _, r := range ctx.delimited {
		if ctx.applyRule(r, pos, true) {
			worked = true
		}
	}
	return worked, pos
}

func (ctx *Context) applyRule(r *rule, pos int, delimited bool) bool {
	data := ctx.buf.Bytes()
	if pos >= len(data) {
		return false
	}
	if delimited && (pos == 0 || !cpatt.IsBorderSpace(data[pos-1])) {
		return false
	}
	end, ok := r.match(data, pos)
	if !ok {
		return false
	}
	if delimited {
		if end >= len(data) || !cpatt.IsBorderSpace(data[end]) {
			return false
		}
		// Guards against rules that would produce the very text they match:
		// replacing a lone 0 with 0 (or 0, with 0, etc.) loops forever.
		switch r.repl {
		case "0", "1":
			if data[pos] == r.repl[0] && pos+1 < len(data) && cpatt.IsBorderSpace(data[pos+1]) {
				return false
			}
		case "0,", "1,":
			if data[pos] == r.repl[0] && pos+1 < len(data) && data[pos+1] == ',' {
				return false
			}
		}
	}
	if stripEqual(data[pos:end], r.repl) {
		return false
	}
	ctx.buf.Splice(pos, end, []byte(r.repl))
	if ctx.trial(pos, false) {
		r.ok++
		return true
	}
	r.fail++
	return false
}

// stripEqual reports whether old and repl are equal modulo whitespace,
// in which case the edit would not reduce anything.
func stripEqual(old []byte, repl string) bool {
	i, j := 0, 0
	for {
		for i < len(old) && cpatt.IsSpace(old[i]) {
			i++
		}
		for j < len(repl) && cpatt.IsSpace(repl[j]) {
			j++
		}
		if i == len(old) || j == len(repl) {
			return i == len(old) && j == len(repl)
		}
		if old[i] != repl[j] {
			return false
		}
		i++
		j++
	}
}

func newRules() (unbounded, delimited []*rule) {
	unbounded = []*rule{
		{name: "del parens", repl: "", match: matchBracketRun('(')},
		{name: "del braces", repl: "", match: matchBracketRun('{')},
		{name: "del initializer", repl: "", match: matchInitializer},
		{name: "del bitfield", repl: ";", match: matchBitfield},
		{name: "del semicolon", repl: "", match: matchLit(";")},
		{name: "compound assign", repl: "=", match: matchCompoundAssign},
		{name: "del unary op", repl: "", match: matchAnyChar("+-!~")},
		{name: "del string", repl: "", match: matchString},
		{name: "del string comma", repl: "", match: matchStringComma},
	}

	delimited = []*rule{
		{name: "del label", repl: "", match: matchLabel},
		{name: "del goto", repl: "", match: matchGoto},
	}
	for _, kw := range []string{"char", "short", "long", "signed", "unsigned"} {
		delimited = append(delimited, &rule{name: kw + " to int", repl: "int", match: matchLit(kw)})
	}
	delimited = append(delimited,
		&rule{name: "main args to void", repl: "void", match: matchMainArgs},
		&rule{name: "del int decl", repl: "", match: matchToSemi("int")},
		&rule{name: "del for", repl: "", match: matchLit("for")},
		&rule{name: "del if", repl: "", match: matchIf},
		&rule{name: "del struct decl", repl: "", match: matchToSemi("struct")},
		&rule{name: "del union decl", repl: "", match: matchToSemi("union")},
		&rule{name: "del func def", repl: "", match: matchFuncDef},
		&rule{name: "call comma to 0", repl: "0", match: matchCallComma},
		&rule{name: "del call comma", repl: "", match: matchCallComma},
		&rule{name: "call to 0", repl: "0", match: matchCall},
		&rule{name: "del call", repl: "", match: matchCall},
	)
	shapes := []struct {
		name  string
		match func(data []byte, pos int) (int, bool)
	}{
		{"binop", matchVarOpVar},
		{"lbinop", matchVarOp},
		{"rbinop", matchOpVar},
		{"var", matchVar},
		{"ternary", matchTernaryExpr},
	}
	for _, s := range shapes {
		delimited = append(delimited,
			&rule{name: s.name + " to 0", repl: "0", match: s.match},
			&rule{name: s.name + " to 1", repl: "1", match: s.match},
			&rule{name: "del " + s.name, repl: "", match: s.match},
			&rule{name: s.name + " comma to 0", repl: "0,", match: withComma(s.match)},
			&rule{name: s.name + " comma to 1", repl: "1,", match: withComma(s.match)},
			&rule{name: "del " + s.name + " comma", repl: "", match: withComma(s.match)},
			&rule{name: "del comma " + s.name, repl: "", match: afterComma(s.match)},
		)
	}
	return unbounded, delimited
}

// Matcher constructors. Every matcher returns the end offset of the match
// at pos.

func matchLit(s string) func(data []byte, pos int) (int, bool) {
	return func(data []byte, pos int) (int, bool) {
		if pos+len(s) > len(data) || string(data[pos:pos+len(s)]) != s {
			return pos, false
		}
		return pos + len(s), true
	}
}

func matchAnyChar(chars string) func(data []byte, pos int) (int, bool) {
	return func(data []byte, pos int) (int, bool) {
		for i := 0; i < len(chars); i++ {
			if data[pos] == chars[i] {
				return pos + 1, true
			}
		}
		return pos, false
	}
}

func matchBracketRun(open byte) func(data []byte, pos int) (int, bool) {
	return func(data []byte, pos int) (int, bool) {
		if data[pos] != open {
			return pos, false
		}
		close := cpatt.Bracket(data, pos)
		if close < 0 {
			return pos, false
		}
		return close + 1, true
	}
}

// = { ... }
func matchInitializer(data []byte, pos int) (int, bool) {
	if data[pos] != '=' {
		return pos, false
	}
	i := cpatt.SkipSpace(data, pos+1)
	if i >= len(data) || data[i] != '{' {
		return pos, false
	}
	close := cpatt.Bracket(data, i)
	if close < 0 {
		return pos, false
	}
	return close + 1, true
}

// : digits ; (bitfield width)
func matchBitfield(data []byte, pos int) (int, bool) {
	if data[pos] != ':' {
		return pos, false
	}
	i := cpatt.SkipSpace(data, pos+1)
	j := i
	for j < len(data) && data[j] >= '0' && data[j] <= '9' {
		j++
	}
	if j == i {
		return pos, false
	}
	j = cpatt.SkipSpace(data, j)
	if j >= len(data) || data[j] != ';' {
		return pos, false
	}
	return j + 1, true
}

var compoundAssignOps = []string{
	"<<=", ">>=", "^=", "|=", "&=", "+=", "-=", "*=", "/=", "%=",
}

func matchCompoundAssign(data []byte, pos int) (int, bool) {
	for _, op := range compoundAssignOps {
		if pos+len(op) <= len(data) && string(data[pos:pos+len(op)]) == op {
			return pos + len(op), true
		}
	}
	return pos, false
}

// "..." with no escape handling; a string containing \" simply matches short,
// which the oracle then sorts out.
func matchString(data []byte, pos int) (int, bool) {
	if data[pos] != '"' {
		return pos, false
	}
	for i := pos + 1; i < len(data); i++ {
		if data[i] == '"' {
			return i + 1, true
		}
	}
	return pos, false
}

func matchStringComma(data []byte, pos int) (int, bool) {
	end, ok := matchString(data, pos)
	if !ok {
		return pos, false
	}
	i := cpatt.SkipSpace(data, end)
	if i >= len(data) || data[i] != ',' {
		return pos, false
	}
	return i + 1, true
}

// IdNum :
func matchLabel(data []byte, pos int) (int, bool) {
	end, ok := cpatt.IdNum(data, pos)
	if !ok {
		return pos, false
	}
	i := cpatt.SkipSpace(data, end)
	if i >= len(data) || data[i] != ':' {
		return pos, false
	}
	return i + 1, true
}

// goto IdNum ;
func matchGoto(data []byte, pos int) (int, bool) {
	const kw = "goto"
	if pos+len(kw) > len(data) || string(data[pos:pos+len(kw)]) != kw {
		return pos, false
	}
	i := cpatt.SkipSpace(data, pos+len(kw))
	if i == pos+len(kw) {
		return pos, false
	}
	end, ok := cpatt.IdNum(data, i)
	if !ok {
		return pos, false
	}
	i = cpatt.SkipSpace(data, end)
	if i >= len(data) || data[i] != ';' {
		return pos, false
	}
	return i + 1, true
}

// int argc , char * argv [ ]
func matchMainArgs(data []byte, pos int) (int, bool) {
	i := pos
	for _, part := range []string{"int", " ", "argc", ",", "char", "*", "argv", "[", "]"} {
		if part == " " {
			j := cpatt.SkipSpace(data, i)
			if j == i {
				return pos, false
			}
			i = j
			continue
		}
		i = cpatt.SkipSpace(data, i)
		if i+len(part) > len(data) || string(data[i:i+len(part)]) != part {
			return pos, false
		}
		i += len(part)
	}
	return i, true
}

// keyword, then everything up to and including the next semicolon.
func matchToSemi(kw string) func(data []byte, pos int) (int, bool) {
	return func(data []byte, pos int) (int, bool) {
		if pos+len(kw) > len(data) || string(data[pos:pos+len(kw)]) != kw {
			return pos, false
		}
		for i := pos + len(kw); i < len(data); i++ {
			if data[i] == ';' {
				return i + 1, true
			}
		}
		return pos, false
	}
}

// if ( ... )
func matchIf(data []byte, pos int) (int, bool) {
	const kw = "if"
	if pos+len(kw) > len(data) || string(data[pos:pos+len(kw)]) != kw {
		return pos, false
	}
	i := cpatt.SkipSpace(data, pos+len(kw))
	if i >= len(data) || data[i] != '(' {
		return pos, false
	}
	close := cpatt.Bracket(data, i)
	if close < 0 {
		return pos, false
	}
	return close + 1, true
}

func matchFuncDef(data []byte, pos int) (int, bool) {
	end, _, ok := cpatt.FuncAny(data, pos)
	return end, ok
}

func matchCall(data []byte, pos int) (int, bool) {
	return cpatt.Call(data, pos)
}

func matchCallComma(data []byte, pos int) (int, bool) {
	return withComma(matchCall)(data, pos)
}

// FullVar BinOp FullVar
func matchVarOpVar(data []byte, pos int) (int, bool) {
	end, ok := cpatt.FullVar(data, pos)
	if !ok {
		return pos, false
	}
	i := cpatt.SkipSpace(data, end)
	opEnd, ok := cpatt.BinOp(data, i)
	if !ok {
		return pos, false
	}
	i = cpatt.SkipSpace(data, opEnd)
	end, ok = cpatt.FullVar(data, i)
	if !ok {
		return pos, false
	}
	return end, true
}

// FullVar BinOp
func matchVarOp(data []byte, pos int) (int, bool) {
	end, ok := cpatt.FullVar(data, pos)
	if !ok {
		return pos, false
	}
	i := cpatt.SkipSpace(data, end)
	opEnd, ok := cpatt.BinOp(data, i)
	if !ok {
		return pos, false
	}
	return opEnd, true
}

// BinOp FullVar
func matchOpVar(data []byte, pos int) (int, bool) {
	opEnd, ok := cpatt.BinOp(data, pos)
	if !ok {
		return pos, false
	}
	i := cpatt.SkipSpace(data, opEnd)
	end, ok := cpatt.FullVar(data, i)
	if !ok {
		return pos, false
	}
	return end, true
}

func matchVar(data []byte, pos int) (int, bool) {
	return cpatt.FullVar(data, pos)
}

// FullVar ? FullVar : FullVar
func matchTernaryExpr(data []byte, pos int) (int, bool) {
	end, ok := cpatt.FullVar(data, pos)
	if !ok {
		return pos, false
	}
	i := cpatt.SkipSpace(data, end)
	if i >= len(data) || data[i] != '?' {
		return pos, false
	}
	end, ok = cpatt.FullVar(data, cpatt.SkipSpace(data, i+1))
	if !ok {
		return pos, false
	}
	i = cpatt.SkipSpace(data, end)
	if i >= len(data) || data[i] != ':' {
		return pos, false
	}
	end, ok = cpatt.FullVar(data, cpatt.SkipSpace(data, i+1))
	if !ok {
		return pos, false
	}
	return end, true
}

// shape followed by a comma.
func withComma(match func(data []byte, pos int) (int, bool)) func(data []byte, pos int) (int, bool) {
	return func(data []byte, pos int) (int, bool) {
		end, ok := match(data, pos)
		if !ok {
			return pos, false
		}
		i := cpatt.SkipSpace(data, end)
		if i >= len(data) || data[i] != ',' {
			return pos, false
		}
		return i + 1, true
	}
}

// comma followed by a shape.
func afterComma(match func(data []byte, pos int) (int, bool)) func(data []byte, pos int) (int, bool) {
	return func(data []byte, pos int) (int, bool) {
		if data[pos] != ',' {
			return pos, false
		}
		i := cpatt.SkipSpace(data, pos+1)
		end, ok := match(data, i)
		if !ok {
			return pos, false
		}
		return end, true
	}
}
