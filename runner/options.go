// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner implements the Hurl entry orchestrator (spec §4.H):
// option resolution, templating, request build, retry/skip/repeat,
// capture/assert evaluation and variable scope updates, plus the
// worker-pool multi-file execution of spec §5.
//
// Grounded on the teacher's ht.go (Test.Run: skip/retry/PreSleep/Wait
// state machine), variables.go (Repeat unrolling) and suite.go
// (Suite.ExecuteConcurrent: buffered channel + sync.WaitGroup worker
// pool), generalized from "tests" to "files".
package runner

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vdobler/hurl/value"
)

// Logger is the minimal logging capability every component that logs
// accepts, exactly the shape the teacher's ht.Test.Log uses.
type Logger interface {
	Printf(format string, v ...interface{})
}

// nopLogger discards everything; used when Options.Logger is nil.
type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// Options mirrors the CLI surface of spec §6, validated once per run via
// go-playground/validator (grounded on xraph-go-utils' use of the same
// library for option/config structs).
type Options struct {
	Jobs            int  `validate:"gte=1"`
	Repeat          int  `validate:"gte=1"`
	ContinueOnError bool
	IgnoreAsserts   bool

	Location        bool
	LocationTrusted bool
	MaxRedirects    int `validate:"gte=-1"`

	ConnectTimeout time.Duration
	MaxTime        time.Duration

	Retry         int `validate:"gte=-1"`
	RetryInterval time.Duration
	Delay         time.Duration

	Compressed bool
	Insecure   bool
	CACert     string
	Cert       string
	Key        string

	Proxy      string
	Resolve    map[string]string
	ConnectTo  map[string]string
	UnixSocket string

	User       string
	AWSSigV4   string
	Netrc      bool
	NetrcFile  string
	NetrcOptional bool

	CookieFile    string
	CookieJarFile string

	Verbose bool

	// Variables seeds the scope every file starts from (--variable,
	// --variables-file, HURL_* environment variables). Each file starts
	// from a copy; captures and [Options] variable: declarations overwrite
	// bindings of the same name.
	Variables value.Scope

	Logger Logger

	// MetricsAddr, when non-empty, starts the optional Prometheus
	// exporter of internal/metrics (expansion, spec §2 domain stack).
	MetricsAddr string
}

// DefaultOptions returns the spec's documented defaults (spec §6): jobs
// defaults to CPU count by the CLI layer, not here, since runner has no
// business calling runtime.NumCPU; callers construct Options explicitly.
func DefaultOptions() Options {
	return Options{
		Jobs:         1,
		Repeat:       1,
		MaxRedirects: 50,
		Retry:        0,
		Variables:    value.Scope{},
	}
}

// Validate checks Options for internally-consistent values, returning the
// validator's error (validator.ValidationErrors) unchanged on failure.
func (o *Options) Validate() error {
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	if o.Variables == nil {
		o.Variables = value.Scope{}
	}
	return validator.New().Struct(o)
}

// resolved is the per-entry effective option set after overlaying a
// request's [Options] section atop the run-wide Options (spec §4.H step
// 1: "start from CLI defaults; overlay [Options] section").
type resolved struct {
	Skip bool

	Repeat int

	Location        bool
	LocationTrusted bool
	MaxRedirects    int

	ConnectTimeout time.Duration
	MaxTime        time.Duration

	Retry         int
	RetryInterval time.Duration
	Delay         time.Duration

	Compressed bool
	Insecure   bool

	IgnoreAsserts bool
	Verbose       bool

	VariableDecls []varDecl
}

type varDecl struct {
	Name  string
	Value string
}
