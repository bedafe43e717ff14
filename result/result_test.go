// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package result

import (
	"errors"
	"testing"

	"github.com/kr/pretty"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{NotRun, "NotRun"},
		{Skipped, "Skipped"},
		{Pass, "Pass"},
		{Fail, "Fail"},
		{Error, "Error"},
		{Status(99), "Unknown"},
	}
	for _, test := range tests {
		if got := test.status.String(); got != test.want {
			t.Errorf("%s", pretty.Sprintf("Status(%d).String() = %q, want %q", int(test.status), got, test.want))
		}
	}
}

func TestStatusMarshalText(t *testing.T) {
	got, err := Pass.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %s", err)
	}
	if string(got) != "Pass" {
		t.Errorf("MarshalText() = %q, want Pass", got)
	}

	if _, err := Status(99).MarshalText(); err == nil {
		t.Error("MarshalText() for invalid status: want error, got nil")
	}
}

func TestErrorListAsError(t *testing.T) {
	var el ErrorList
	if el.AsError() != nil {
		t.Errorf("empty ErrorList.AsError() = %v, want nil", el.AsError())
	}

	el = append(el, errors.New("boom"), errors.New("bang"))
	err := el.AsError()
	if err == nil {
		t.Fatal("non-empty ErrorList.AsError() = nil, want error")
	}
	if err.Error() != "boom; bang" {
		t.Errorf("%s", pretty.Sprintf("ErrorList.Error() = %q, want %q", err.Error(), "boom; bang"))
	}
}

func TestEntryResultPassed(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Pass, true},
		{Skipped, true},
		{Fail, false},
		{Error, false},
		{NotRun, false},
	}
	for _, test := range tests {
		er := EntryResult{Status: test.status}
		if got := er.Passed(); got != test.want {
			t.Errorf("%s", pretty.Sprintf("EntryResult{Status: %s}.Passed() = %v, want %v", test.status, got, test.want))
		}
	}
}

func TestFileResultStats(t *testing.T) {
	fr := FileResult{Entries: []EntryResult{
		{Status: Pass}, {Status: Pass}, {Status: Fail}, {Status: Error}, {Status: Skipped},
	}}
	passed, failed, errored, skipped := fr.Stats()
	if passed != 2 || failed != 1 || errored != 1 || skipped != 1 {
		t.Errorf("%s", pretty.Sprintf("Stats() = (%d, %d, %d, %d), want (2, 1, 1, 1)", passed, failed, errored, skipped))
	}
}

func TestRunResultStatusAndExitCode(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		wantRank Status
		wantExit int
	}{
		{"all pass", []Status{Pass, Pass}, Pass, 0},
		{"one fail", []Status{Pass, Fail}, Fail, 4},
		{"one error wins over fail", []Status{Fail, Error}, Error, 3},
		{"empty run", nil, NotRun, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rr := &RunResult{}
			for _, s := range test.statuses {
				rr.Files = append(rr.Files, FileResult{Status: s})
			}
			if got := rr.Status(); got != test.wantRank {
				t.Errorf("%s", pretty.Sprintf("Status() = %s, want %s", got, test.wantRank))
			}
			if got := rr.ExitCode(); got != test.wantExit {
				t.Errorf("ExitCode() = %d, want %d", got, test.wantExit)
			}
		})
	}
}
