// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurlfile

import "testing"

func TestParseSimpleGet(t *testing.T) {
	src := `GET https://example.org/api
HTTP 200
`
	f, err := Parse([]byte(src), "simple.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if len(f.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(f.Entries))
	}
	e := f.Entries[0]
	if e.Request.Method != "GET" || e.Request.URL != "https://example.org/api" {
		t.Errorf("Request = %+v, want GET https://example.org/api", e.Request)
	}
	if e.Response == nil || e.Response.Status != "200" {
		t.Errorf("Response = %+v, want status 200", e.Response)
	}
}

func TestParseHeadersAndAsserts(t *testing.T) {
	src := `POST https://example.org/login
Content-Type: application/json
X-Trace-Id: abc123
{"user": "bob"}
HTTP 201
[Asserts]
header "Content-Type" == "application/json"
jsonpath "$.ok" == true
`
	f, err := Parse([]byte(src), "headers.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	req := f.Entries[0].Request
	if len(req.Headers) != 2 {
		t.Fatalf("len(Headers) = %d, want 2", len(req.Headers))
	}
	if req.Body == nil || req.Body.Kind != BodyJSON {
		t.Fatalf("Body = %+v, want a BodyJSON literal", req.Body)
	}
	resp := f.Entries[0].Response
	if len(resp.Asserts) != 2 {
		t.Fatalf("len(Asserts) = %d, want 2", len(resp.Asserts))
	}
}

func TestParseOptionsSection(t *testing.T) {
	src := `GET https://example.org
[Options]
retry: 3
skip: true
variable: base=https://other.org
HTTP 200
`
	f, err := Parse([]byte(src), "options.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	opts := f.Entries[0].Request.Options
	if len(opts) != 3 {
		t.Fatalf("len(Options) = %d, want 3", len(opts))
	}
	if opts[0].Name != "retry" || opts[0].Kind != OptionInt || opts[0].Int != 3 {
		t.Errorf("Options[0] = %+v, want retry: 3", opts[0])
	}
	if opts[1].Name != "skip" || opts[1].Kind != OptionBool || !opts[1].Bool {
		t.Errorf("Options[1] = %+v, want skip: true", opts[1])
	}
	if opts[2].Kind != OptionVariable || opts[2].VarName != "base" || opts[2].VarValue != "https://other.org" {
		t.Errorf("Options[2] = %+v, want variable base=https://other.org", opts[2])
	}
}

func TestParseMultipleEntries(t *testing.T) {
	src := `GET https://example.org/first
HTTP 200

GET https://example.org/second
HTTP 200
`
	f, err := Parse([]byte(src), "multi.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if len(f.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(f.Entries))
	}
}

func TestParseBadRequestLine(t *testing.T) {
	_, err := Parse([]byte("not a request line\n"), "bad.hurl")
	if err == nil {
		t.Fatal("Parse(bad request line): want error, got nil")
	}
	if _, ok := err.(*PosError); !ok {
		t.Errorf("Parse error is %T, want *PosError", err)
	}
}

func TestParseCaptures(t *testing.T) {
	src := `GET https://example.org
HTTP 200
[Captures]
token: jsonpath "$.token"
count: jsonpath "$.items" count
`
	f, err := Parse([]byte(src), "captures.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	caps := f.Entries[0].Response.Captures
	if len(caps) != 2 {
		t.Fatalf("len(Captures) = %d, want 2", len(caps))
	}
	if caps[0].Name != "token" || caps[0].Query.Kind != QueryJSONPath {
		t.Errorf("Captures[0] = %+v, want token: jsonpath", caps[0])
	}
	if len(caps[1].Filters) != 1 || caps[1].Filters[0].Name != "count" {
		t.Errorf("Captures[1].Filters = %+v, want [count]", caps[1].Filters)
	}
}

func TestParseBase64BodyLiteral(t *testing.T) {
	src := "POST https://example.org\nbase64,aGVsbG8=;\nHTTP 200\n"
	f, err := Parse([]byte(src), "base64.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	body := f.Entries[0].Request.Body
	if body == nil || body.Kind != BodyBase64 {
		t.Fatalf("Body = %+v, want a BodyBase64 literal", body)
	}
	if string(body.Bytes) != "hello" {
		t.Errorf("Body.Bytes = %q, want %q", body.Bytes, "hello")
	}
}

func TestParseHexBodyLiteral(t *testing.T) {
	src := "POST https://example.org\nhex,68656c6c6f;\nHTTP 200\n"
	f, err := Parse([]byte(src), "hex.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	body := f.Entries[0].Request.Body
	if body == nil || body.Kind != BodyHex {
		t.Fatalf("Body = %+v, want a BodyHex literal", body)
	}
	if string(body.Bytes) != "hello" {
		t.Errorf("Body.Bytes = %q, want %q", body.Bytes, "hello")
	}
}

func TestParseBadBase64BodyLiteral(t *testing.T) {
	_, err := Parse([]byte("POST https://example.org\nbase64,not-valid-base64!!;\nHTTP 200\n"), "badbase64.hurl")
	if err == nil {
		t.Fatal("Parse(invalid base64 literal): want error, got nil")
	}
	if _, ok := err.(*PosError); !ok {
		t.Errorf("Parse error is %T, want *PosError", err)
	}
}

func TestParseMultilineHexBody(t *testing.T) {
	src := "POST https://example.org\n```hex\n68656c6c6f\n```\nHTTP 200\n"
	f, err := Parse([]byte(src), "multilinehex.hurl")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	body := f.Entries[0].Request.Body
	if body == nil || body.Kind != BodyMultiline || body.Lang != LangHex {
		t.Fatalf("Body = %+v, want a multiline hex literal", body)
	}
	if string(body.Bytes) != "hello" {
		t.Errorf("Body.Bytes = %q, want %q", body.Bytes, "hello")
	}
}
