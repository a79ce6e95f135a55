// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log provides functionality similar to standard log package with some extensions:
//   - verbosity levels
//   - global verbosity setting that can be used by multiple packages
package log

import (
	"flag"
	golog "log"
)

var flagV = flag.Int("vv", 0, "verbosity")

// V reports whether logging at verbosity v is enabled.
func V(v int) bool {
	return v <= *flagV
}

func Logf(v int, msg string, args ...interface{}) {
	if V(v) {
		golog.Printf(msg, args...)
	}
}

func Fatal(err error) {
	golog.Fatal(err)
}

func Fatalf(msg string, args ...interface{}) {
	golog.Fatalf(msg, args...)
}

// VerboseWriter is an io.Writer that forwards everything to Logf
// with the corresponding verbosity level.
type VerboseWriter int

func (w VerboseWriter) Write(data []byte) (int, error) {
	Logf(int(w), "%s", data)
	return len(data), nil
}
