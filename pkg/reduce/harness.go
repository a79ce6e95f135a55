// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package reduce

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/cshrink/pkg/buffer"
	"github.com/google/cshrink/pkg/hash"
	"github.com/google/cshrink/pkg/log"
	"github.com/google/cshrink/pkg/osutil"
	"github.com/google/cshrink/pkg/stat"
)

var (
	statTrials = stat.New("trials", "Oracle trials started",
		stat.Prometheus("cshrink_trials"))
	statAccepts = stat.New("accepts", "Trials accepted by the oracle",
		stat.Prometheus("cshrink_accepts"))
	statRejects = stat.New("rejects", "Trials rejected by the oracle",
		stat.Prometheus("cshrink_rejects"))
	statCacheHits = stat.New("cache hits", "Trials short-circuited by the trial cache",
		stat.Prometheus("cshrink_cache_hits"))
	statOracleMS = stat.New("oracle ms", "Oracle run time (ms)",
		stat.Distribution{})
)

// trial runs the oracle on the current (mutated) buffer and commits or
// reverts the edit. okToEnlarge allows the new program to be longer than the
// last accepted one; a method that promised non-growth and violates it is a
// bug and aborts the run.
func (ctx *Context) trial(pos int, okToEnlarge bool) bool {
	m := ctx.method
	ctx.trials++
	statTrials.Add(1)
	sig := hash.Hash(ctx.buf.Bytes())
	if _, hit := ctx.cache[sig]; hit {
		// A cached verdict never makes progress: a repeated failure would be
		// rejected again and a repeated success leaves the program no shorter
		// than it already was. Either way, revert and move on.
		ctx.cacheHits++
		statCacheHits.Add(1)
		m.fail++
		statRejects.Add(1)
		ctx.restore()
		ctx.progress(pos, " (cached)")
		return false
	}
	if err := ctx.buf.Save(ctx.cfg.File); err != nil {
		log.Fatalf("failed to write %v: %v", ctx.cfg.File, err)
	}
	if ctx.cfg.Debug {
		tmp := filepath.Join(ctx.dir, fmt.Sprintf("delta_tmp_%v.c", ctx.trials))
		if err := osutil.CopyFile(ctx.cfg.File, tmp); err != nil {
			log.Fatalf("failed to write %v: %v", tmp, err)
		}
	}
	interesting := ctx.runOracle()
	ctx.cache[sig] = interesting
	if !interesting {
		m.fail++
		statRejects.Add(1)
		ctx.restore()
		ctx.progress(pos, "")
		return false
	}
	if err := osutil.CopyFile(ctx.cfg.File, ctx.backup); err != nil {
		log.Fatalf("failed to update backup %v: %v", ctx.backup, err)
	}
	m.ok++
	statAccepts.Add(1)
	size := ctx.buf.Len()
	if size > ctx.curLen && !okToEnlarge {
		log.Fatalf("method %v enlarged the program from %v to %v bytes", m.name, ctx.curLen, size)
	}
	if size < ctx.curLen {
		ctx.cache = make(map[hash.Sig]bool)
	}
	ctx.curLen = size
	ctx.progress(pos, fmt.Sprintf(" -%.1f%%", ctx.reduction()))
	return true
}

// restore reverts a rejected trial: the backup is copied over the working
// file and the buffer is reloaded, leaving it byte-identical to its pre-trial
// state.
func (ctx *Context) restore() {
	if err := osutil.CopyFile(ctx.backup, ctx.cfg.File); err != nil {
		log.Fatalf("failed to restore %v: %v", ctx.cfg.File, err)
	}
	buf, err := buffer.Load(ctx.cfg.File)
	if err != nil {
		log.Fatalf("failed to reload %v: %v", ctx.cfg.File, err)
	}
	ctx.buf = buf
}

// sanityCheck verifies the core invariant at the start of every pass:
// the oracle must accept the last accepted program.
func (ctx *Context) sanityCheck(m *method) {
	if err := osutil.CopyFile(ctx.backup, ctx.cfg.File); err != nil {
		log.Fatalf("failed to restore %v: %v", ctx.cfg.File, err)
	}
	buf, err := buffer.Load(ctx.cfg.File)
	if err != nil {
		log.Fatalf("failed to reload %v: %v", ctx.cfg.File, err)
	}
	ctx.buf = buf
	if !ctx.runOracle() {
		log.Fatalf("pass %v %v: oracle rejects the last accepted program %v",
			ctx.pass, m.name, ctx.backup)
	}
}

func (ctx *Context) runOracle() bool {
	cmd := osutil.Command("./" + filepath.Base(ctx.cfg.Oracle))
	cmd.Dir = ctx.dir
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	start := time.Now()
	_, err := osutil.Run(ctx.cfg.OracleTimeout, cmd)
	statOracleMS.Add(int(time.Since(start).Milliseconds()))
	if err == nil {
		return true
	}
	if verr, ok := err.(*osutil.VerboseError); ok && verr.ExitCode != 0 {
		return false
	}
	// Failed to start or failed without an exit status: treat as
	// uninteresting. A timed-out or signal-killed oracle reports exit code -1
	// and is already handled above.
	log.Logf(1, "oracle did not exit cleanly: %v", err)
	return false
}

func (ctx *Context) progress(pos int, suffix string) {
	log.Logf(0, "pass %v %v (%v/%v) ok %v fail %v%v",
		ctx.pass, ctx.method.name, pos, ctx.buf.Len(), ctx.method.ok, ctx.method.fail, suffix)
}

func (ctx *Context) reduction() float64 {
	return 100 * float64(ctx.origLen-ctx.curLen) / float64(ctx.origLen)
}

func (ctx *Context) report() {
	log.Logf(0, "reduced %v: %v -> %v bytes (-%.1f%%), %v trials, %v cache hits",
		ctx.cfg.File, ctx.origLen, ctx.curLen, ctx.reduction(), ctx.trials, ctx.cacheHits)
	for _, m := range ctx.methods {
		if m.ok+m.fail == 0 {
			continue
		}
		log.Logf(0, "method %v: ok %v fail %v", m.name, m.ok, m.fail)
	}
	for i, r := range ctx.unbounded {
		if r.ok+r.fail == 0 {
			continue
		}
		log.Logf(0, "regex %v (%v): ok %v fail %v", i, r.name, r.ok, r.fail)
	}
	for i, r := range ctx.delimited {
		if r.ok+r.fail == 0 {
			continue
		}
		log.Logf(0, "delimited regex %v (%v): ok %v fail %v", i, r.name, r.ok, r.fail)
	}
	if log.V(1) {
		for _, v := range stat.Collect() {
			log.Logf(1, "stat %v: %v", v.Name, v.Value)
		}
	}
}
