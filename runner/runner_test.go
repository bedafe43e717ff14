// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/vdobler/hurl/hurlfile"
	"github.com/vdobler/hurl/result"
)

func mustParse(t *testing.T, src string) *hurlfile.File {
	t.Helper()
	f, err := hurlfile.Parse([]byte(src), "test.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	return f
}

func TestRunFilePassingEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 42, "name": "widget"}`)
	}))
	defer srv.Close()

	src := fmt.Sprintf(`GET %s
HTTP 200
[Asserts]
jsonpath "$.id" == 42
jsonpath "$.name" == "widget"
`, srv.URL)

	r := New()
	fr, err := r.RunFile(context.Background(), mustParse(t, src), DefaultOptions())
	if err != nil {
		t.Fatalf("RunFile: %s", err)
	}
	if fr.Status != result.Pass {
		t.Errorf("%s", pretty.Sprintf("FileResult.Status = %s, want Pass\nentries: %# v", fr.Status, fr.Entries))
	}
}

func TestRunFileFailingAssert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := fmt.Sprintf(`GET %s
HTTP 200
`, srv.URL)

	r := New()
	fr, err := r.RunFile(context.Background(), mustParse(t, src), DefaultOptions())
	if err != nil {
		t.Fatalf("RunFile: %s", err)
	}
	if fr.Status != result.Fail {
		t.Errorf("%s", pretty.Sprintf("FileResult.Status = %s, want Fail", fr.Status))
	}
	if len(fr.Entries) != 1 || len(fr.Entries[0].Asserts) == 0 {
		t.Fatalf("%s", pretty.Sprintf("unexpected entries: %# v", fr.Entries))
	}
}

func TestRunFileCaptureFeedsNextEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/first" {
			fmt.Fprint(w, `{"token": "abc123"}`)
			return
		}
		fmt.Fprintf(w, `{"echo": %q}`, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	src := fmt.Sprintf(`GET %[1]s/first
HTTP 200
[Captures]
tok: jsonpath "$.token"

GET %[1]s/second
Authorization: Bearer {{tok}}
HTTP 200
[Asserts]
jsonpath "$.echo" == "Bearer abc123"
`, srv.URL)

	r := New()
	fr, err := r.RunFile(context.Background(), mustParse(t, src), DefaultOptions())
	if err != nil {
		t.Fatalf("RunFile: %s", err)
	}
	if fr.Status != result.Pass {
		t.Errorf("%s", pretty.Sprintf("FileResult.Status = %s, want Pass\nentries: %# v", fr.Status, fr.Entries))
	}
}

func TestRunFileSkip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not have been called for a skipped entry")
	}))
	defer srv.Close()

	src := fmt.Sprintf(`GET %s
[Options]
skip: true
HTTP 200
`, srv.URL)

	r := New()
	fr, err := r.RunFile(context.Background(), mustParse(t, src), DefaultOptions())
	if err != nil {
		t.Fatalf("RunFile: %s", err)
	}
	if len(fr.Entries) != 1 || fr.Entries[0].Status != result.Skipped {
		t.Errorf("%s", pretty.Sprintf("entries = %# v, want one Skipped entry", fr.Entries))
	}
}

func TestRunFileSha256HexPredicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	// sha256("hello") = 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824
	src := fmt.Sprintf(`GET %s
HTTP 200
[Asserts]
sha256 == hex,2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824;
`, srv.URL)

	r := New()
	fr, err := r.RunFile(context.Background(), mustParse(t, src), DefaultOptions())
	if err != nil {
		t.Fatalf("RunFile: %s", err)
	}
	if fr.Status != result.Pass {
		t.Errorf("%s", pretty.Sprintf("FileResult.Status = %s, want Pass\nentries: %# v", fr.Status, fr.Entries))
	}
}

func TestRunFileCookieJarRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "xyz", Path: "/"})
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	dir := t.TempDir()
	jarFile := filepath.Join(dir, "cookies.txt")

	src := fmt.Sprintf(`GET %s
HTTP 200
`, srv.URL)

	opts := DefaultOptions()
	opts.CookieJarFile = jarFile

	r := New()
	fr, err := r.RunFile(context.Background(), mustParse(t, src), opts)
	if err != nil {
		t.Fatalf("RunFile: %s", err)
	}
	if fr.Status != result.Pass {
		t.Fatalf("%s", pretty.Sprintf("FileResult.Status = %s, want Pass", fr.Status))
	}

	data, err := os.ReadFile(jarFile)
	if err != nil {
		t.Fatalf("reading --cookie-jar file: %s", err)
	}
	if !strings.Contains(string(data), "session") || !strings.Contains(string(data), "xyz") {
		t.Errorf("cookie jar file = %q, want it to contain the session cookie", data)
	}

	opts2 := DefaultOptions()
	opts2.CookieFile = jarFile
	fr2, err := r.RunFile(context.Background(), mustParse(t, src), opts2)
	if err != nil {
		t.Fatalf("RunFile (reload): %s", err)
	}
	if fr2.Status != result.Pass {
		t.Fatalf("%s", pretty.Sprintf("FileResult.Status = %s, want Pass", fr2.Status))
	}
}
