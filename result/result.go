// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package result implements the run result model of spec §3/§4.I: the
// in-memory structured output of a run, consumed by reporters (HTML/
// JSON/JUnit/TAP serializers are out of scope per spec §1).
//
// Grounded on the teacher's report.go (Status enum with iota/String/
// MarshalText, SuiteResult/TestResult shape) and errorlist.List /
// ht.ErrorList for per-entry error aggregation.
package result

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/vdobler/hurl/httpclient"
	"github.com/vdobler/hurl/value"
)

// Status describes the outcome of one entry (spec §3, EntryResult).
type Status int

const (
	NotRun  Status = iota // not yet executed
	Skipped               // skip: true in [Options]
	Pass                  // request executed, all asserts held
	Fail                  // request executed, an assert failed
	Error                 // transport/query/predicate/runtime error, retries exhausted
)

func (s Status) String() string {
	switch s {
	case NotRun:
		return "NotRun"
	case Skipped:
		return "Skipped"
	case Pass:
		return "Pass"
	case Fail:
		return "Fail"
	case Error:
		return "Error"
	}
	return "Unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	if s < NotRun || s > Error {
		return nil, fmt.Errorf("result: no such status %d", s)
	}
	return []byte(s.String()), nil
}

// ErrorList aggregates zero or more errors raised while evaluating one
// entry's captures/asserts (spec §7, "Propagation"). Grounded on the
// teacher's errorlist.List.
type ErrorList []error

func (el ErrorList) Error() string {
	parts := make([]string, len(el))
	for i, e := range el {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// AsError returns el as an error, or nil if el is empty.
func (el ErrorList) AsError() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// CaptureResult records one evaluated [Captures] line.
type CaptureResult struct {
	Name  string
	Value value.Value
	Error error
}

// AssertResult records one evaluated implicit or explicit assert.
type AssertResult struct {
	Description string // e.g. `jsonpath "$.count" == 5`
	Pass        bool
	Error       error
}

// RequestRecord is the rendered request actually sent (or attempted),
// kept for --error-format long style diagnostics (spec §7).
type RequestRecord struct {
	Method string
	URL    string
	Header map[string][]string
	Body   []byte
}

// EntryResult is the outcome of running one Entry, possibly across
// several retry attempts and repeat iterations (spec §3).
type EntryResult struct {
	ID xid.ID

	EntryIndex int // 0-based position of the entry in its file
	Status     Status

	Request  *RequestRecord
	Response *httpclient.Response

	Captures []CaptureResult
	Asserts  []AssertResult

	Timings httpclient.Timings

	RetryCount int  // attempts - 1
	Skipped    bool
	Errors     ErrorList

	Duration time.Duration // wall time for this entry, including retries
}

// Passed reports whether every assert of this entry held and no error
// was recorded.
func (er *EntryResult) Passed() bool {
	return er.Status == Pass || er.Status == Skipped
}

// FileResult is the outcome of running one .hurl file, i.e. one
// EntryResult per executed Entry in order (spec §4.H, "strictly
// sequential" within a file).
type FileResult struct {
	Name    string
	Entries []EntryResult
	Status  Status

	Duration time.Duration
}

// Stats summarizes pass/fail/error/skip counts, mirroring the teacher's
// Suite.Stats.
func (fr *FileResult) Stats() (passed, failed, errored, skipped int) {
	for _, er := range fr.Entries {
		switch er.Status {
		case Pass:
			passed++
		case Fail:
			failed++
		case Error:
			errored++
		case Skipped:
			skipped++
		}
	}
	return
}

// RunResult aggregates every file executed in one invocation of the
// runner (spec §4.H, "Parallelism").
type RunResult struct {
	ID    uuid.UUID
	Files []FileResult

	Started  time.Time
	Duration time.Duration
}

// Status is the worst status across every file: Error > Fail > Pass >
// Skipped > NotRun, matching the teacher's SuiteResult.Status rollup.
func (rr *RunResult) Status() Status {
	worst := NotRun
	for _, fr := range rr.Files {
		if rank(fr.Status) > rank(worst) {
			worst = fr.Status
		}
	}
	return worst
}

func rank(s Status) int {
	switch s {
	case NotRun:
		return 0
	case Skipped:
		return 1
	case Pass:
		return 2
	case Fail:
		return 3
	case Error:
		return 4
	}
	return -1
}

// ExitCode maps the run's worst status to the exit codes of spec §7:
// 0 success; 4 assert (Fail) error; 3 runtime/transport (Error).
func (rr *RunResult) ExitCode() int {
	switch rr.Status() {
	case Fail:
		return 4
	case Error:
		return 3
	}
	return 0
}
