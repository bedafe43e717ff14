// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package httpclient implements the Hurl HTTP client adapter (spec
// §4.F): a single execute(req_spec) operation built on net/http, with
// redirect policy, timing capture and TLS info extraction.
//
// Grounded on the teacher's ht.go (ClientPool.Get, doFollowRedirects/
// dontFollowRedirects, the package-level Transport/DefaultClientTimeout
// vars) and executeRequest (gzip decompression, redirect tracking).
package httpclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/aoliveti/curling"
)

// DefaultTimeout mirrors the teacher's DefaultClientTimeout, though Hurl
// entries nearly always override it via [Options] max-time.
var DefaultTimeout = 30 * time.Second

// Transport is the shared transport used by every Adapter unless a
// RequestSpec overrides TLS/dialing options, grounded on the teacher's
// package-level Transport var.
var Transport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	MaxIdleConnsPerHost:   8,
}

var errRedirectNoFollow = errors.New("httpclient: redirects not followed")

// RequestSpec aggregates everything one HTTP execution needs (spec §4.F).
type RequestSpec struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte

	FollowRedirects bool
	LocationTrusted bool // forwards credentials across redirects
	MaxRedirects    int  // -1 means unlimited

	Timeout        time.Duration
	ConnectTimeout time.Duration // bounds connection establishment only (spec §5, "Cancellation & timeouts")

	Insecure   bool
	CACertPath string
	ClientCert string
	ClientKey  string

	Proxy       string
	ResolveMap  map[string]string // "host:port" -> "ip:port"
	UnixSocket  string

	BasicUser, BasicPassword string
	Compressed               bool

	Cookies []*http.Cookie // request-level one-shot cookies (spec §4.G)

	Verbose bool // dump curl-equivalent of the request (component F expansion)
}

// Timings captures per-phase latencies (spec §4.F), in microseconds.
type Timings struct {
	NameLookup   int64
	Connect      int64
	AppConnect   int64
	StartTransfer int64
	Total        int64
}

// TLSInfo exposes the peer certificate fields the `certificate` query
// needs (spec §4.C/§4.F).
type TLSInfo struct {
	Subject      string
	Issuer       string
	SerialNumber string
	NotBefore    time.Time
	NotAfter     time.Time
}

// Response is what the adapter hands back to the runner and query
// engine. Its accessor methods satisfy query.Exec directly.
type Response struct {
	status      int
	statusLine  string
	header      http.Header
	body        []byte
	finalURL    string
	RequestDump string // set when RequestSpec.Verbose, via aoliveti/curling
	duration    time.Duration
	tlsState    *tls.ConnectionState
	cookies     []*http.Cookie
	timings     Timings
	tlsInfo     *TLSInfo
}

func (r *Response) StatusCode() int           { return r.status }
func (r *Response) StatusLine() string        { return r.statusLine }
func (r *Response) FinalURL() string          { return r.finalURL }
func (r *Response) Header() http.Header       { return r.header }
func (r *Response) BodyBytes() []byte         { return r.body }
func (r *Response) Duration() time.Duration   { return r.duration }
func (r *Response) TLS() *tls.ConnectionState { return r.tlsState }
func (r *Response) Cookies() []*http.Cookie   { return r.cookies }
func (r *Response) Timings() Timings          { return r.timings }
func (r *Response) TLSInfo() *TLSInfo         { return r.tlsInfo }

// tlsInfoOf reduces a tls.ConnectionState down to the certificate fields
// the `certificate` query needs (spec §4.C/§4.F), independent of
// query.evalCertificate, which works straight off TLS() for entries that
// don't need the full Response wrapper.
func tlsInfoOf(st *tls.ConnectionState) *TLSInfo {
	if st == nil || len(st.PeerCertificates) == 0 {
		return nil
	}
	cert := st.PeerCertificates[0]
	return &TLSInfo{
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: cert.SerialNumber.String(),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
	}
}

// Adapter executes RequestSpecs. It holds no state across calls other
// than the shared Transport (spec §4.F: "does not retain state across
// calls").
type Adapter struct{}

// Execute performs a single HTTP round trip, following redirects
// per-spec and recording timings via httptrace (spec §4.F).
func (a *Adapter) Execute(ctx context.Context, spec RequestSpec) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, bytes.NewReader(spec.Body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s", err)
	}
	for k, vs := range spec.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if spec.BasicUser != "" {
		req.SetBasicAuth(spec.BasicUser, spec.BasicPassword)
	}
	for _, c := range spec.Cookies {
		req.AddCookie(c)
	}
	if spec.Compressed && req.Header.Get("Accept-Encoding") == "" {
		// Setting Accept-Encoding explicitly disables net/http's own
		// transparent gzip handling, so readBody must decompress the
		// response itself (spec §4.C, "If a compressed response is
		// requested (--compressed or Accept-Encoding)...").
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}

	var timings Timings
	var start, dnsStart, connStart, tlsStart time.Time
	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone: func(httptrace.DNSDoneInfo) {
			timings.NameLookup = time.Since(dnsStart).Microseconds()
		},
		ConnectStart: func(string, string) { connStart = time.Now() },
		ConnectDone: func(string, string, error) {
			timings.Connect = time.Since(connStart).Microseconds()
		},
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			timings.AppConnect = time.Since(tlsStart).Microseconds()
		},
		GotFirstResponseByte: func() {
			timings.StartTransfer = time.Since(start).Microseconds()
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	client := a.buildClient(spec)

	var dump string
	if spec.Verbose {
		if cmd, cerr := curling.NewFromRequest(req, curling.WithLongForm(true)); cerr == nil {
			dump = cmd.String()
		}
	}

	start = time.Now()
	resp, err := client.Do(req)
	if err != nil && !errors.Is(err, errRedirectNoFollow) {
		return nil, &TransportError{Spec: spec, Cause: err}
	}
	if resp == nil {
		return nil, &TransportError{Spec: spec, Cause: err}
	}
	defer resp.Body.Close()

	var body []byte
	if err == nil {
		// Only a followed (or terminal) response has a live body; a
		// CheckRedirect-rejected response's body is already closed by
		// net/http, per its documented dontFollowRedirects contract.
		body, err = readBody(resp)
		if err != nil {
			return nil, &TransportError{Spec: spec, Cause: err}
		}
	}
	timings.Total = time.Since(start).Microseconds()

	out := &Response{
		status:      resp.StatusCode,
		statusLine:  resp.Status,
		header:      resp.Header,
		body:        body,
		finalURL:    resp.Request.URL.String(),
		duration:    time.Duration(timings.Total) * time.Microsecond,
		tlsState:    resp.TLS,
		cookies:     resp.Cookies(),
		RequestDump: dump,
		timings:     timings,
		tlsInfo:     tlsInfoOf(resp.TLS),
	}
	return out, nil
}

// readBody reads and, per spec §4.C, transparently decompresses a
// gzip/deflate response body so `body`/`bytes` queries see the
// decompressed stream (grounded on ht.go's executeRequest).
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	case "deflate":
		return inflateDeflate(raw)
	}
	return raw, nil
}

// inflateDeflate decompresses a "Content-Encoding: deflate" body. Most
// servers send zlib-wrapped deflate (RFC 1950 header); a minority send
// raw DEFLATE (RFC 1951) with no header, so zlib is tried first and raw
// flate is the fallback.
func inflateDeflate(raw []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		defer zr.Close()
		return io.ReadAll(zr)
	}
	fr := flate.NewReader(bytes.NewReader(raw))
	defer fr.Close()
	return io.ReadAll(fr)
}

func (a *Adapter) buildClient(spec RequestSpec) *http.Client {
	timeout := spec.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := Transport
	if spec.Insecure || spec.ClientCert != "" || len(spec.ResolveMap) > 0 || spec.ConnectTimeout > 0 {
		transport = cloneTransport(spec)
	}

	client := &http.Client{Timeout: timeout, Transport: transport}
	if spec.FollowRedirects {
		client.CheckRedirect = redirectPolicy(spec)
	} else {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return errRedirectNoFollow
		}
	}
	return client
}

// cloneTransport builds a per-request transport when TLS or resolve
// overrides are requested, rather than mutating the shared Transport.
func cloneTransport(spec RequestSpec) *http.Transport {
	t := Transport.Clone()
	if spec.Insecure {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}
		t.TLSClientConfig.InsecureSkipVerify = true
	}
	if len(spec.ResolveMap) > 0 || spec.ConnectTimeout > 0 {
		dialTimeout := 10 * time.Second
		if spec.ConnectTimeout > 0 {
			dialTimeout = spec.ConnectTimeout
		}
		dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if override, ok := spec.ResolveMap[addr]; ok {
				addr = override
			}
			return dialer.DialContext(ctx, network, addr)
		}
	}
	return t
}

// redirectPolicy implements the location/location-trusted/max-redirs
// governance of spec §4.H, grounded on ht.go's doFollowRedirects.
func redirectPolicy(spec RequestSpec) func(*http.Request, []*http.Request) error {
	max := spec.MaxRedirects
	return func(req *http.Request, via []*http.Request) error {
		if max >= 0 && len(via) >= max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		if !spec.LocationTrusted {
			req.Header.Del("Authorization")
			req.Header.Del("Cookie")
		}
		return nil
	}
}

// TransportError wraps a failed round trip (spec §7, TransportError).
type TransportError struct {
	Spec  RequestSpec
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("httpclient: %s %s: %s", e.Spec.Method, e.Spec.URL, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }
