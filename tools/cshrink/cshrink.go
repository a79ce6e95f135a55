// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// cshrink shrinks a C source file while preserving a property judged by an
// external oracle script. The oracle reads the file itself and exits 0 iff
// the file is still interesting; cshrink repeatedly applies small C-aware
// syntactic edits and keeps only the ones the oracle accepts.
//
// It is meant to run after a line-based delta reducer has removed the bulk:
// the value here is in coordinated C-specific edits (qualifier stripping,
// ternary folding, prototype motion, bracket peeling) that a line-based tool
// cannot express.
//
// Usage: cshrink [flags] oracle_script file.c
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/cshrink/pkg/reduce"
	"github.com/google/cshrink/pkg/tool"
)

func main() {
	var (
		flagAll     = flag.Bool("all", false, "enable all methods")
		flagDebug   = flag.Bool("debug", false, "save every trial program as delta_tmp_<trial>.c")
		flagTimeout = flag.Duration("oracle-timeout", 0, "kill one oracle run after this long (0 = no timeout)")
	)
	methodFlags := make(map[string]*bool)
	for _, name := range reduce.MethodNames() {
		methodFlags[name] = flag.Bool(name, false, fmt.Sprintf("enable the %v method", name))
	}
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: cshrink [flags] oracle_script file.c\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	var methods []string
	for _, name := range reduce.MethodNames() {
		if *flagAll || *methodFlags[name] {
			methods = append(methods, name)
		}
	}
	if len(methods) == 0 {
		flag.Usage()
		tool.Failf("no methods enabled, pass -all or at least one -<method>")
	}
	cfg := &reduce.Config{
		Oracle:        flag.Arg(0),
		File:          flag.Arg(1),
		Methods:       methods,
		Debug:         *flagDebug,
		OracleTimeout: *flagTimeout,
	}
	if err := reduce.Run(cfg); err != nil {
		flag.Usage()
		tool.Fail(err)
	}
}
