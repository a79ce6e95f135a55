// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package reduce

import (
	"bytes"

	"github.com/google/cshrink/pkg/buffer"
	"github.com/google/cshrink/pkg/cpatt"
	"github.com/google/cshrink/pkg/log"
	"github.com/google/cshrink/pkg/osutil"
)

// Every method has the signature fn(ctx, pos) (worked, next):
// worked reports whether at least one candidate edit was accepted, next is
// the position the sweep continues from. The driver advances by 1 byte when
// next <= pos and nothing worked.

// blanks collapses a whitespace run of two or more bytes at pos to a single
// space.
func (ctx *Context) blanks(pos int) (bool, int) {
	data := ctx.buf.Bytes()
	if pos+1 >= len(data) || !cpatt.IsSpace(data[pos]) || !cpatt.IsSpace(data[pos+1]) {
		return false, pos
	}
	end := cpatt.SkipSpace(data, pos)
	ctx.buf.Splice(pos, end, []byte(" "))
	return ctx.trial(pos, false), pos
}

// allBlanks normalizes whitespace in the whole buffer in one shot:
// collapse whitespace runs to single spaces, insert a newline after every
// colon that precedes a non-space (so that the program is not a single
// enormous line), and give every comma a single space on both sides.
// The last two edits may enlarge the program.
func (ctx *Context) allBlanks(pos int) (bool, int) {
	worked := false
	if next := collapseSpace(ctx.buf.Bytes()); next != nil {
		ctx.buf.Splice(0, ctx.buf.Len(), next)
		if ctx.trial(pos, false) {
			worked = true
		}
	}
	if next := breakAfterColons(ctx.buf.Bytes()); next != nil {
		ctx.buf.Splice(0, ctx.buf.Len(), next)
		if ctx.trial(pos, true) {
			worked = true
		}
	}
	if next := padCommas(ctx.buf.Bytes()); next != nil {
		ctx.buf.Splice(0, ctx.buf.Len(), next)
		if ctx.trial(pos, true) {
			worked = true
		}
	}
	return worked, ctx.buf.Len()
}

// collapseSpace returns data with every run of two or more whitespace bytes
// replaced by a single space, or nil if data is already in that form.
// Single whitespace bytes are kept as they are so that the newlines inserted
// by breakAfterColons survive the next application.
func collapseSpace(data []byte) []byte {
	var out []byte
	changed := false
	for i := 0; i < len(data); {
		if !cpatt.IsSpace(data[i]) {
			out = append(out, data[i])
			i++
			continue
		}
		end := cpatt.SkipSpace(data, i)
		if end-i == 1 {
			out = append(out, data[i])
		} else {
			out = append(out, ' ')
			changed = true
		}
		i = end
	}
	if !changed {
		return nil
	}
	return out
}

func breakAfterColons(data []byte) []byte {
	var out []byte
	changed := false
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == ':' && i+1 < len(data) && !cpatt.IsSpace(data[i+1]) {
			out = append(out, '\n')
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return out
}

// padCommas gives every comma exactly one space on each side.
func padCommas(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); i++ {
		if data[i] != ',' {
			out = append(out, data[i])
			continue
		}
		for len(out) > 0 && cpatt.IsSpace(out[len(out)-1]) {
			out = out[:len(out)-1]
		}
		out = append(out, ' ', ',', ' ')
		for i+1 < len(data) && cpatt.IsSpace(data[i+1]) {
			i++
		}
	}
	if bytes.Equal(out, data) {
		return nil
	}
	return out
}

// indentOptions is the fixed option set passed to the external pretty-printer.
var indentOptions = []string{
	"-bad", "-bap", "-bc", "-cs", "-pcs", "-prs",
	"-saf", "-sai", "-saw", "-sob", "-ss", "-bl",
}

// indent runs the external indent(1) on the working file and tests the
// result, enlargement allowed.
func (ctx *Context) indent(pos int) (bool, int) {
	if err := ctx.buf.Save(ctx.cfg.File); err != nil {
		log.Fatalf("failed to write %v: %v", ctx.cfg.File, err)
	}
	args := append(append([]string{}, indentOptions...), ctx.cfg.File)
	if _, err := osutil.RunCmd(ctx.cfg.OracleTimeout, ctx.dir, "indent", args...); err != nil {
		log.Logf(0, "indent failed: %v", err)
		ctx.restore()
		return false, ctx.buf.Len()
	}
	buf, err := buffer.Load(ctx.cfg.File)
	if err != nil {
		log.Fatalf("failed to reload %v: %v", ctx.cfg.File, err)
	}
	ctx.buf = buf
	worked := ctx.trial(pos, true)
	return worked, ctx.buf.Len()
}

// crc rewrites a csmith checksum call transparent_crc(x, ...) into
// printf ("%d\n", (int)x), which keeps the value observable while cutting
// the name string and flag arguments.
func (ctx *Context) crc(pos int) (bool, int) {
	data := ctx.buf.Bytes()
	const fn = "transparent_crc"
	if pos+len(fn) > len(data) || string(data[pos:pos+len(fn)]) != fn {
		return false, pos
	}
	open := cpatt.SkipSpace(data, pos+len(fn))
	if open >= len(data) || data[open] != '(' {
		return false, pos
	}
	close := cpatt.Bracket(data, open)
	if close < 0 {
		return false, pos
	}
	first := firstArg(data[open+1 : close])
	repl := []byte("printf (\"%d\\n\", (int)" + string(first) + ")")
	ctx.buf.Splice(pos, close+1, repl)
	return ctx.trial(pos, false), pos
}

// firstArg returns the first comma-separated token of a call argument list,
// honoring nested brackets.
func firstArg(args []byte) []byte {
	depth := 0
	for i, b := range args {
		switch b {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				return bytes.TrimSpace(args[:i])
			}
		}
	}
	return bytes.TrimSpace(args)
}

// moveFunc replaces a function prototype with the full definition of the same
// function and deletes the definition's original slot. The program shrinks by
// the length of the prototype; on success the sweep skips past the moved
// definition.
func (ctx *Context) moveFunc(pos int) (bool, int) {
	data := ctx.buf.Bytes()
	protoEnd, name, ok := cpatt.ProtoAny(data, pos)
	if !ok {
		return false, pos
	}
	defStart, defEnd := -1, -1
	for i := protoEnd; i < len(data); i++ {
		if end, ok := cpatt.Func(data, i, name); ok {
			defStart, defEnd = i, end
			break
		}
	}
	if defStart < 0 {
		return false, pos
	}
	def := append([]byte{}, data[defStart:defEnd]...)
	ctx.buf.Splice(defStart, defEnd, nil)
	ctx.buf.Splice(pos, protoEnd, def)
	if !ctx.trial(pos, false) {
		return false, pos
	}
	return true, pos + len(def)
}

// delArgs records every function name once per pass and skips past its
// prototype or definition.
// TODO: delete one parameter here and the corresponding argument at every
// call site of the function in the same trial.
func (ctx *Context) delArgs(pos int) (bool, int) {
	data := ctx.buf.Bytes()
	end, name, ok := cpatt.ProtoAny(data, pos)
	if !ok {
		end, name, ok = cpatt.FuncAny(data, pos)
	}
	if !ok || ctx.funcsSeen[name] {
		return false, pos
	}
	ctx.funcsSeen[name] = true
	return false, end
}

// ternary folds a border-flanked a ? b : c to b, and if the oracle rejects
// that, to c.
func (ctx *Context) ternary(pos int) (bool, int) {
	data := ctx.buf.Bytes()
	if pos == 0 || !cpatt.IsBorderSpace(data[pos-1]) {
		return false, pos
	}
	aEnd, ok := cpatt.FullVar(data, pos)
	if !ok {
		return false, pos
	}
	i := cpatt.SkipSpace(data, aEnd)
	if i >= len(data) || data[i] != '?' {
		return false, pos
	}
	bStart := cpatt.SkipSpace(data, i+1)
	bEnd, ok := cpatt.FullVar(data, bStart)
	if !ok {
		return false, pos
	}
	i = cpatt.SkipSpace(data, bEnd)
	if i >= len(data) || data[i] != ':' {
		return false, pos
	}
	cStart := cpatt.SkipSpace(data, i+1)
	cEnd, ok := cpatt.FullVar(data, cStart)
	if !ok {
		return false, pos
	}
	if cEnd >= len(data) || !cpatt.IsBorderSpace(data[cEnd]) {
		return false, pos
	}
	b := append([]byte{}, data[bStart:bEnd]...)
	c := append([]byte{}, data[cStart:cEnd]...)
	ctx.buf.Splice(pos, cEnd, b)
	if ctx.trial(pos, false) {
		return true, pos
	}
	ctx.buf.Splice(pos, cEnd, c)
	return ctx.trial(pos, false), pos
}

// shortenInts shortens an integer literal at pos, one edit per accepted
// trial: drop the first digit, drop one suffix letter, drop the sign/base
// prefix. Repeated application at the same position peels the literal down
// to a single digit.
func (ctx *Context) shortenInts(pos int) (bool, int) {
	data := ctx.buf.Bytes()
	lit, ok := cpatt.Int(data, pos)
	if !ok {
		return false, pos
	}
	if lit.DigitsEnd-lit.PrefixEnd >= 2 {
		ctx.buf.Splice(lit.PrefixEnd, lit.PrefixEnd+1, nil)
		if ctx.trial(pos, false) {
			return true, pos
		}
	}
	if lit.End > lit.DigitsEnd {
		ctx.buf.Splice(lit.End-1, lit.End, nil)
		if ctx.trial(pos, false) {
			return true, pos
		}
	}
	if lit.PrefixEnd > lit.Start {
		ctx.buf.Splice(lit.Start, lit.PrefixEnd, nil)
		if ctx.trial(pos, false) {
			return true, pos
		}
	}
	return false, pos
}

// parens peels a balanced parenthesis run at pos: first the whole span, then
// just the two bracket characters.
func (ctx *Context) parens(pos int) (bool, int) {
	return ctx.peel(pos, '(')
}

// brackets does the same for a balanced brace run.
func (ctx *Context) brackets(pos int) (bool, int) {
	return ctx.peel(pos, '{')
}

func (ctx *Context) peel(pos int, open byte) (bool, int) {
	data := ctx.buf.Bytes()
	if pos >= len(data) || data[pos] != open {
		return false, pos
	}
	close := cpatt.Bracket(data, pos)
	if close < 0 {
		return false, pos
	}
	ctx.buf.Splice(pos, close+1, nil)
	if ctx.trial(pos, false) {
		return true, pos
	}
	ctx.buf.Splice(close, close+1, nil)
	ctx.buf.Splice(pos, pos+1, nil)
	return ctx.trial(pos, false), pos
}
