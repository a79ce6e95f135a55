// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package buffer holds the program text being reduced as a flat byte sequence.
// The first and last byte are always ASCII spaces (inserted at load), so that
// patterns that require a border character on both sides can match at the
// logical start/end of the file without special-casing boundaries.
package buffer

import (
	"os"

	"github.com/google/cshrink/pkg/osutil"
)

type Buffer struct {
	data []byte
}

// FromBytes creates a buffer from data, inserting sentinel spaces as needed.
// The input slice is not retained.
func FromBytes(data []byte) *Buffer {
	b := &Buffer{data: append([]byte{}, data...)}
	if len(b.data) == 0 || b.data[0] != ' ' {
		b.data = append([]byte{' '}, b.data...)
	}
	if b.data[len(b.data)-1] != ' ' {
		b.data = append(b.data, ' ')
	}
	return b
}

func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(data), nil
}

func (b *Buffer) Save(path string) error {
	return osutil.WriteFile(path, b.data)
}

func (b *Buffer) Len() int {
	return len(b.data)
}

// At returns the byte at pos, or 0 if pos is out of bounds.
func (b *Buffer) At(pos int) byte {
	if pos < 0 || pos >= len(b.data) {
		return 0
	}
	return b.data[pos]
}

// Bytes returns the underlying byte sequence. The result is invalidated
// by the next Splice.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Slice(i, j int) []byte {
	return b.data[i:j]
}

// Splice replaces bytes [i, j) with repl in place.
func (b *Buffer) Splice(i, j int, repl []byte) {
	data := make([]byte, 0, len(b.data)-(j-i)+len(repl))
	data = append(data, b.data[:i]...)
	data = append(data, repl...)
	data = append(data, b.data[j:]...)
	b.data = data
}

func (b *Buffer) String() string {
	return string(b.data)
}
