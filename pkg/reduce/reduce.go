// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package reduce implements the C-aware reduction engine: a catalogue of
// syntactic transformation methods, a fixpoint driver that sweeps every method
// over every source position, and an oracle harness that accepts an edit only
// if the external oracle still classifies the result as interesting.
package reduce

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/cshrink/pkg/buffer"
	"github.com/google/cshrink/pkg/hash"
	"github.com/google/cshrink/pkg/log"
	"github.com/google/cshrink/pkg/osutil"
)

type Config struct {
	// Oracle is the path of the oracle script. The script is executed as
	// ./<name> in its own directory, receives no arguments and no stdin,
	// reads File itself and exits 0 iff File is interesting.
	Oracle string
	// File is the program being reduced. It is overwritten with every trial;
	// File+".bak" holds the last accepted program and File+".orig" the
	// original input.
	File string
	// Methods are the enabled method names (see MethodNames).
	Methods []string
	// Debug additionally saves every trial program as delta_tmp_<trial>.c.
	Debug bool
	// OracleTimeout bounds one oracle invocation; 0 means no timeout
	// (the oracle owns its own timeout handling).
	OracleTimeout time.Duration
}

type Context struct {
	cfg    *Config
	dir    string // working dir: oracle invocation and snapshot files
	backup string // last accepted program, oracle is known to accept it
	orig   string

	buf     *buffer.Buffer
	cache   map[hash.Sig]bool
	origLen int
	curLen  int

	pass      int
	trials    int
	cacheHits int
	funcsSeen map[string]bool

	methods   []*method
	method    *method // method of the current pass
	unbounded []*rule
	delimited []*rule
}

type method struct {
	name string
	prio int
	fn   func(ctx *Context, pos int) (bool, int)
	ok   int
	fail int
}

// Method table. Lower priority runs earlier in each outer pass.
func methodTable() []*method {
	return []*method{
		{name: "all_blanks", prio: 0, fn: (*Context).allBlanks},
		{name: "blanks", prio: 1, fn: (*Context).blanks},
		{name: "crc", prio: 1, fn: (*Context).crc},
		{name: "move_func", prio: 2, fn: (*Context).moveFunc},
		{name: "del_args", prio: 2, fn: (*Context).delArgs},
		{name: "brackets", prio: 2, fn: (*Context).brackets},
		{name: "ternary", prio: 2, fn: (*Context).ternary},
		{name: "parens", prio: 3, fn: (*Context).parens},
		{name: "replace_regex", prio: 4, fn: (*Context).replaceRegex},
		{name: "shorten_ints", prio: 5, fn: (*Context).shortenInts},
		{name: "indent", prio: 15, fn: (*Context).indent},
	}
}

// MethodNames returns the names of all known methods.
func MethodNames() []string {
	var names []string
	for _, m := range methodTable() {
		names = append(names, m.name)
	}
	return names
}

// Run reduces cfg.File until one full round of all enabled methods accepts
// zero edits.
func Run(cfg *Config) error {
	ctx, err := newContext(cfg)
	if err != nil {
		return err
	}
	for {
		ctx.pass++
		snapshot := filepath.Join(ctx.dir, fmt.Sprintf("delta_backup_%v.c", ctx.pass))
		if err := osutil.CopyFile(ctx.cfg.File, snapshot); err != nil {
			log.Fatalf("failed to snapshot pass %v: %v", ctx.pass, err)
		}
		any := false
		for _, m := range ctx.methods {
			if ctx.methodPass(m) {
				any = true
			}
		}
		if !any {
			break
		}
	}
	ctx.report()
	return nil
}

func newContext(cfg *Config) (*Context, error) {
	if err := osutil.IsExecutable(cfg.Oracle); err != nil {
		return nil, fmt.Errorf("bad oracle script: %v", err)
	}
	ctx := &Context{
		cfg:    cfg,
		dir:    filepath.Dir(cfg.Oracle),
		backup: cfg.File + ".bak",
		orig:   cfg.File + ".orig",
		cache:  make(map[hash.Sig]bool),
	}
	table := methodTable()
	for _, name := range cfg.Methods {
		var m *method
		for _, known := range table {
			if known.name == name {
				m = known
				break
			}
		}
		if m == nil {
			return nil, fmt.Errorf("unknown method %q", name)
		}
		ctx.methods = append(ctx.methods, m)
	}
	if len(ctx.methods) == 0 {
		return nil, fmt.Errorf("no methods enabled")
	}
	sort.SliceStable(ctx.methods, func(i, j int) bool {
		return ctx.methods[i].prio < ctx.methods[j].prio
	})
	buf, err := buffer.Load(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %v", err)
	}
	ctx.buf = buf
	// Persist the sentinel-padded form, then snapshot it.
	if err := ctx.buf.Save(cfg.File); err != nil {
		return nil, err
	}
	if err := osutil.CopyFile(cfg.File, ctx.orig); err != nil {
		return nil, err
	}
	if err := osutil.CopyFile(cfg.File, ctx.backup); err != nil {
		return nil, err
	}
	ctx.origLen = ctx.buf.Len()
	ctx.curLen = ctx.buf.Len()
	ctx.unbounded, ctx.delimited = newRules()
	return ctx, nil
}

// methodPass sweeps one method over the whole buffer and reports whether it
// accepted at least one edit. Position advances by 1 byte on failure; on
// success most methods stay at the same position so that further edits can
// apply at the same site. Methods that reshuffle or need to skip the edited
// region return the next position explicitly.
func (ctx *Context) methodPass(m *method) bool {
	ctx.sanityCheck(m)
	ctx.method = m
	ctx.funcsSeen = make(map[string]bool)
	before := m.ok
	pos := 0
	for pos < ctx.buf.Len() {
		worked, next := m.fn(ctx, pos)
		switch {
		case next > pos:
			pos = next
		case !worked:
			pos++
		}
	}
	return m.ok > before
}
