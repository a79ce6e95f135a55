// Copyright 2025 cshrink project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package stat provides a registry of named counters for instrumenting code.
// Metrics can additionally be exported to Prometheus and collected as
// value distributions (histogram-backed).
package stat

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/VividCortex/gohistogram"
	"github.com/prometheus/client_golang/prometheus"
)

type UI struct {
	Name  string
	Desc  string
	Value string
	V     int
}

func New(name, desc string, opts ...any) *Val {
	return global.New(name, desc, opts...)
}

func Collect() []UI {
	return global.Collect()
}

var global = &set{vals: make(map[string]*Val)}

type set struct {
	mu        sync.Mutex
	vals      map[string]*Val
	nextOrder atomic.Uint64
}

// Additional options for Val metrics.

// Prometheus exports the metric to Prometheus under the given name.
type Prometheus string

// Distribution says to collect a histogram of individual samples;
// Val() then returns the mean.
type Distribution struct{}

const histogramBuckets = 255

func (s *set) New(name, desc string, opts ...any) *Val {
	v := &Val{
		name:  name,
		desc:  desc,
		order: s.nextOrder.Add(1),
		fmt:   func(v int) string { return strconv.Itoa(v) },
	}
	for _, o := range opts {
		switch opt := o.(type) {
		case Distribution:
			v.hist = true
		case func() int:
			v.ext = opt
		case func(int) string:
			v.fmt = opt
		case Prometheus:
			prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: string(opt),
				Help: desc,
			},
				func() float64 { return float64(v.Val()) },
			))
		default:
			panic(fmt.Sprintf("unknown stats option %#v", o))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name] = v
	return v
}

func (s *set) Collect() []UI {
	s.mu.Lock()
	defer s.mu.Unlock()
	var vals []*Val
	for _, v := range s.vals {
		vals = append(vals, v)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i].order < vals[j].order })
	var res []UI
	for _, v := range vals {
		val := v.Val()
		res = append(res, UI{
			Name:  v.name,
			Desc:  v.desc,
			Value: v.fmt(val),
			V:     val,
		})
	}
	return res
}

type Val struct {
	name    string
	desc    string
	order   uint64
	val     atomic.Uint64
	ext     func() int
	fmt     func(int) string
	hist    bool
	histMu  sync.Mutex
	histVal *gohistogram.NumericHistogram
}

func (v *Val) Add(val int) {
	if v.ext != nil {
		panic(fmt.Sprintf("stat %v is in external mode", v.name))
	}
	if v.hist {
		v.histMu.Lock()
		if v.histVal == nil {
			v.histVal = gohistogram.NewHistogram(histogramBuckets)
		}
		v.histVal.Add(float64(val))
		v.histMu.Unlock()
		return
	}
	v.val.Add(uint64(val))
}

func (v *Val) Val() int {
	if v.ext != nil {
		return v.ext()
	}
	if v.hist {
		v.histMu.Lock()
		defer v.histMu.Unlock()
		if v.histVal == nil {
			return 0
		}
		return int(v.histVal.Mean())
	}
	return int(v.val.Load())
}
