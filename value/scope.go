// Copyright 2017 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"math/rand"
	"strconv"
	"sync"
)

// Scope is a set of (variable-name, variable-value) pairs visible to the
// template evaluator while running a single file. Unlike the teacher's
// scope.Variables (a map[string]string fed through strings.Replacer),
// entries here keep their typed Value so templates can render numbers,
// lists and objects, not just strings (spec §4.B).
type Scope map[string]Value

// Copy returns a shallow copy of s.
func (s Scope) Copy() Scope {
	cpy := make(Scope, len(s))
	for k, v := range s {
		cpy[k] = v
	}
	return cpy
}

// Set stores name=v in s, overwriting any previous value. It mirrors the
// runtime effect of a successful capture (spec §4.H) or an
// [Options] variable: declaration (spec §6).
func (s Scope) Set(name string, v Value) {
	s[name] = v
}

// Get returns the value bound to name and whether it was found.
func (s Scope) Get(name string) (Value, bool) {
	v, ok := s[name]
	return v, ok
}

// New merges outer (CLI --variable / --variables-file, highest priority)
// with inner (an [Options] variable: declaration local to one entry) into
// a fresh scope: outer bindings always win, matching the teacher's
// scope.New ("inner scope provides some kind of default which gets
// overwritten from the outside").
func New(outer, inner Scope) Scope {
	merged := make(Scope, len(outer)+len(inner))
	for k, v := range inner {
		merged[k] = v
	}
	for k, v := range outer {
		merged[k] = v
	}
	return merged
}

// Random is the shared source of randomness for the "newUuid"-adjacent
// auto variables a runner may expose; guarded by randMux for concurrent
// use across the worker pool (spec §5, concurrency model).
var Random = rand.New(rand.NewSource(1))
var randMux sync.Mutex

// RandomIntn returns a random int in [0,n), safe for concurrent use.
func RandomIntn(n int) int {
	randMux.Lock()
	defer randMux.Unlock()
	return Random.Intn(n)
}

var counterMux sync.Mutex
var counter int64 = 1

// NextCounter returns a strictly increasing sequence of integers, one
// per call, safe for concurrent use across files run in the worker pool.
func NextCounter() int64 {
	counterMux.Lock()
	defer counterMux.Unlock()
	c := counter
	counter++
	return c
}

// CounterString is a convenience wrapper for templating contexts that
// want the counter as a plain string.
func CounterString() string {
	return strconv.FormatInt(NextCounter(), 10)
}
