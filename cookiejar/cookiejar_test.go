// Copyright 2015 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cookiejar

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestNetscapeRoundTrip(t *testing.T) {
	j, err := New()
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	u := &url.URL{Scheme: "https", Host: "example.org", Path: "/"}
	j.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "abc123", Path: "/"}})

	var buf strings.Builder
	if err := j.WriteNetscape(&buf, []*url.URL{u}); err != nil {
		t.Fatalf("WriteNetscape: %s", err)
	}
	if !strings.Contains(buf.String(), "sid") {
		t.Errorf("Netscape output missing cookie name: %q", buf.String())
	}

	j2, err := New()
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	if err := j2.ReadNetscape(strings.NewReader(buf.String())); err != nil {
		t.Fatalf("ReadNetscape: %s", err)
	}
	got := j2.Cookies(u)
	if len(got) != 1 || got[0].Value != "abc123" {
		t.Errorf("Cookies after round trip = %v, want sid=abc123", got)
	}
}

func TestIsProperCookiePath(t *testing.T) {
	u := &url.URL{Path: "/some/other/path"}
	cases := []struct {
		path string
		want bool
	}{
		{"", true},
		{"/some/other/path", true},
		{"/some", true},
		{"/some/", true},
		{"/abc/123", false},
	}
	for _, c := range cases {
		if got := IsProperCookiePath(u, c.path); got != c.want {
			t.Errorf("IsProperCookiePath(%q, %q) = %v, want %v", u.Path, c.path, got, c.want)
		}
	}
}

func TestParseOneShot(t *testing.T) {
	cookies := ParseOneShot(map[string]string{"a": "1"})
	if len(cookies) != 1 || cookies[0].Name != "a" || cookies[0].Value != "1" {
		t.Errorf("ParseOneShot = %v", cookies)
	}
}
