// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vdobler/hurl/httpclient"
	"github.com/vdobler/hurl/result"
	"github.com/vdobler/hurl/value"
)

func TestResolveFilesGlobAndArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.hurl", "b.hurl"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("GET http://example.org\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := resolveFiles([]string{"explicit.hurl"}, filepath.Join(dir, "*.hurl"))
	if err != nil {
		t.Fatalf("resolveFiles: %s", err)
	}
	if len(files) != 3 {
		t.Fatalf("resolveFiles() = %v, want 3 entries", files)
	}
}

func TestResolveFilesNoGlob(t *testing.T) {
	files, err := resolveFiles([]string{"only.hurl"}, "")
	if err != nil {
		t.Fatalf("resolveFiles: %s", err)
	}
	if len(files) != 1 || files[0] != "only.hurl" {
		t.Fatalf("resolveFiles() = %v, want [only.hurl]", files)
	}
}

func TestLoadVariablesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.env")
	content := "# a comment\nhost=example.org\n\nport=8080\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	scope := value.Scope{}
	if err := loadVariablesFile(path, scope); err != nil {
		t.Fatalf("loadVariablesFile: %s", err)
	}
	if scope["host"] != value.String("example.org") {
		t.Errorf("scope[host] = %v, want example.org", scope["host"])
	}
	if scope["port"] != value.String("8080") {
		t.Errorf("scope[port] = %v, want 8080", scope["port"])
	}
}

func TestLoadVariablesFileRejectsRedefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.env")
	content := "host=example.org\nhost=other.org\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	scope := value.Scope{}
	if err := loadVariablesFile(path, scope); err == nil {
		t.Error("loadVariablesFile() with a redefined variable: want error, got nil")
	}
}

func TestPrintTimingHistogramsSkipsEmptyFiles(t *testing.T) {
	rr := &result.RunResult{
		Files: []result.FileResult{
			{
				Name: "all-skipped.hurl",
				Entries: []result.EntryResult{
					{Skipped: true, Status: result.Skipped},
				},
			},
			{
				Name: "ran.hurl",
				Entries: []result.EntryResult{
					{Status: result.Pass, Timings: httpclient.Timings{Total: 1200}},
					{Status: result.Pass, Timings: httpclient.Timings{Total: 1500}},
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	printTimingHistograms(f, rr)
	f.Close()

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(out)
	if !strings.Contains(got, "ran.hurl") {
		t.Errorf("printTimingHistograms output %q missing ran.hurl", got)
	}
	if strings.Contains(got, "all-skipped.hurl") {
		t.Errorf("printTimingHistograms output %q should omit file with no executed entries", got)
	}
}

func TestPrintTimingHistogramsNoFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	printTimingHistograms(f, &result.RunResult{})
	f.Close()

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("printTimingHistograms with no files wrote %q, want nothing", out)
	}
}

func TestCmdlVarSet(t *testing.T) {
	v := cmdlVar{}
	if err := v.Set("name=value"); err != nil {
		t.Fatalf("Set: %s", err)
	}
	if v["name"] != "value" {
		t.Errorf("v[name] = %q, want %q", v["name"], "value")
	}
	if err := v.Set("malformed"); err == nil {
		t.Error("Set(malformed) want error, got nil")
	}
}
