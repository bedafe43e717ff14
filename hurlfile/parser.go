// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurlfile

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// requestSections and responseSections list the bracketed section headers
// recognized inside a request or response (spec §3).
var requestSections = map[string]bool{
	"QueryStringParams": true,
	"FormParams":        true,
	"MultipartFormData": true,
	"Cookies":           true,
	"BasicAuth":         true,
	"Options":           true,
}

var responseSections = map[string]bool{
	"Captures": true,
	"Asserts":  true,
}

// Parse parses a whole .hurl source file. On the first error it returns
// nil and a *PosError carrying the offending span (spec §4.A, "Failure
// semantics": "Return the first error with span; do not attempt partial
// recovery").
func Parse(src []byte, filename string) (*File, error) {
	p := &parser{sc: newScanner(src), file: filename}
	f := &File{Name: filename}
	for {
		p.sc.skipBlankAndCommentLines()
		if p.sc.atEOF() {
			break
		}
		entry, err := p.parseEntry()
		if err != nil {
			return nil, err
		}
		f.Entries = append(f.Entries, entry)
	}
	return f, nil
}

type parser struct {
	sc   *scanner
	file string
}

func (p *parser) errorf(span Span, format string, args ...interface{}) error {
	return &PosError{File: p.file, Span: span, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) spanHere() Span {
	l, c, o := p.sc.position()
	return Span{StartLine: l, StartCol: c, StartOffset: o, EndLine: l, EndCol: c, EndOffset: o}
}

func (p *parser) closeSpan(span Span) Span {
	l, c, o := p.sc.position()
	span.EndLine, span.EndCol, span.EndOffset = l, c, o
	return span
}

func (p *parser) parseEntry() (*Entry, error) {
	span := p.spanHere()
	req, err := p.parseRequest()
	if err != nil {
		return nil, err
	}
	entry := &Entry{Request: req}

	p.skipBlankLinesOnly()
	if p.peekIsResponse() {
		resp, err := p.parseResponse()
		if err != nil {
			return nil, err
		}
		entry.Response = resp
	}
	entry.Span = p.closeSpan(span)
	return entry, nil
}

// skipBlankLinesOnly skips blank/comment lines without consuming a
// following non-blank line, leaving the scanner positioned at its start.
func (p *parser) skipBlankLinesOnly() {
	p.sc.skipBlankAndCommentLines()
}

func (p *parser) peekIsResponse() bool {
	save := *p.sc
	defer func() { *p.sc = save }()
	if p.sc.atEOF() {
		return false
	}
	line := strings.TrimSpace(stripComment(p.sc.readLine()))
	return strings.HasPrefix(line, "HTTP")
}

func (p *parser) parseRequest() (*Request, error) {
	span := p.spanHere()
	line := strings.TrimSpace(stripComment(p.sc.readLine()))
	fields := strings.Fields(line)
	if len(fields) < 2 || !looksLikeMethodLine(line) {
		return nil, p.errorf(span, "expected '<METHOD> <url>', got %q", line)
	}
	req := &Request{Method: fields[0], URL: strings.Join(fields[1:], " ")}

	for {
		if p.atEntryBoundary() {
			break
		}
		save := *p.sc
		raw := p.sc.readLine()
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			if !requestSections[name] {
				*p.sc = save
				break // not a request section: must be the body or response
			}
			if err := p.parseRequestSection(req, name); err != nil {
				return nil, err
			}
			continue
		}
		if looksLikeBodyStart(line) {
			*p.sc = save
			body, err := p.parseBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
			continue
		}
		key, val, ok := splitKeyValue(line)
		if !ok {
			return nil, p.errorf(p.spanHere(), "expected 'Name: value' header line, got %q", line)
		}
		decodedKey, err := unescapeValue(strings.TrimSpace(key))
		if err != nil {
			return nil, p.errorf(p.spanHere(), "bad header name: %s", err)
		}
		req.Headers = append(req.Headers, KV{Key: decodedKey, Value: strings.TrimSpace(val)})
	}
	req.Span = p.closeSpan(span)
	return req, nil
}

func (p *parser) parseRequestSection(req *Request, name string) error {
	switch name {
	case "QueryStringParams":
		req.QueryStringParams = p.parseKVLines()
	case "FormParams":
		req.FormParams = p.parseKVLines()
	case "Cookies":
		req.Cookies = p.parseKVLines()
	case "Options":
		opts, err := p.parseOptionsLines()
		if err != nil {
			return err
		}
		req.Options = opts
	case "BasicAuth":
		kvs := p.parseKVLines()
		if len(kvs) > 0 {
			req.BasicAuth = &BasicAuth{User: kvs[0].Key, Password: kvs[0].Value}
		}
	case "MultipartFormData":
		req.MultipartFormData = p.parseMultipartLines()
	}
	return nil
}

// parseKVLines reads "key: value" lines, skipping blank lines, until a
// section header, a line that is not "key: value", or an entry boundary
// is reached.
func (p *parser) parseKVLines() []KV {
	var kvs []KV
	for {
		if p.atSectionOrEntryBoundary() {
			return kvs
		}
		save := *p.sc
		line := strings.TrimSpace(stripComment(p.sc.readLine()))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			*p.sc = save
			return kvs
		}
		key, val, ok := splitKeyValue(line)
		if !ok {
			*p.sc = save
			return kvs
		}
		decodedKey, _ := unescapeValue(strings.TrimSpace(key))
		kvs = append(kvs, KV{Key: decodedKey, Value: strings.TrimSpace(val)})
	}
}

func (p *parser) parseMultipartLines() []MultipartField {
	var fields []MultipartField
	for {
		if p.atSectionOrEntryBoundary() {
			return fields
		}
		save := *p.sc
		line := strings.TrimSpace(stripComment(p.sc.readLine()))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			*p.sc = save
			return fields
		}
		key, val, ok := splitKeyValue(line)
		if !ok {
			*p.sc = save
			return fields
		}
		val = strings.TrimSpace(val)
		f := MultipartField{Name: strings.TrimSpace(key)}
		if strings.HasPrefix(val, "file,") {
			rest := strings.TrimSuffix(strings.TrimPrefix(val, "file,"), ";")
			parts := strings.SplitN(rest, ";", 2)
			f.FileName = strings.TrimSpace(parts[0])
			if len(parts) > 1 {
				f.ContentType = strings.TrimSpace(parts[1])
			}
		} else {
			f.Value = val
		}
		fields = append(fields, f)
	}
}

// parseOptionsLines reads the typed "name: value" lines of an [Options]
// section (spec §4.A, "Options section").
func (p *parser) parseOptionsLines() ([]Option, error) {
	var opts []Option
	for {
		if p.atSectionOrEntryBoundary() {
			return opts, nil
		}
		save := *p.sc
		line := strings.TrimSpace(stripComment(p.sc.readLine()))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			*p.sc = save
			return opts, nil
		}
		key, val, ok := splitKeyValue(line)
		if !ok {
			*p.sc = save
			return opts, nil
		}
		name := strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		opt, err := parseOptionValue(name, val)
		if err != nil {
			return nil, p.errorf(p.spanHere(), "option %q: %s", name, err)
		}
		opts = append(opts, opt)
	}
}

func parseOptionValue(name, val string) (Option, error) {
	opt := Option{Name: name}
	if name == "variable" {
		eq := strings.IndexByte(val, '=')
		if eq < 0 {
			return opt, errMalformedVariable
		}
		opt.Kind = OptionVariable
		opt.VarName = strings.TrimSpace(val[:eq])
		opt.VarValue = strings.TrimSpace(val[eq+1:])
		return opt, nil
	}
	if val == "true" || val == "false" {
		opt.Kind = OptionBool
		opt.Bool = val == "true"
		return opt, nil
	}
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		opt.Kind = OptionInt
		opt.Int = n
		return opt, nil
	}
	if ms, ok := parseDuration(val); ok {
		opt.Kind = OptionDuration
		opt.Duration = ms
		return opt, nil
	}
	opt.Kind = OptionString
	opt.String = val
	return opt, nil
}

// parseDuration parses an integer with optional ms|s|m unit, defaulting
// to seconds when no unit is given (spec §4.A).
func parseDuration(s string) (ms int64, ok bool) {
	unit := int64(1000)
	numPart := s
	switch {
	case strings.HasSuffix(s, "ms"):
		unit = 1
		numPart = strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "s"):
		unit = 1000
		numPart = strings.TrimSuffix(s, "s")
	case strings.HasSuffix(s, "m"):
		unit = 60000
		numPart = strings.TrimSuffix(s, "m")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(numPart), 10, 64)
	if err != nil {
		return 0, false
	}
	return n * unit, true
}

func looksLikeBodyStart(line string) bool {
	switch {
	case strings.HasPrefix(line, "{"):
		return true
	case strings.HasPrefix(line, "<"):
		return true
	case strings.HasPrefix(line, "```"):
		return true
	case strings.HasPrefix(line, "`"):
		return true
	case strings.HasPrefix(line, "base64,"):
		return true
	case strings.HasPrefix(line, "hex,"):
		return true
	case strings.HasPrefix(line, "file,"):
		return true
	}
	return false
}

func (p *parser) parseBody() (*Body, error) {
	span := p.spanHere()
	save := *p.sc
	first := strings.TrimSpace(p.sc.readLine())

	switch {
	case strings.HasPrefix(first, "```"):
		return p.parseMultilineBody(span, first)
	case strings.HasPrefix(first, "`"):
		val, _, err := parseBacktickString(first)
		if err != nil {
			return nil, p.errorf(span, "%s", err)
		}
		return &Body{Span: p.closeSpan(span), Kind: BodyOneline, Raw: val}, nil
	case strings.HasPrefix(first, "base64,"):
		raw := strings.TrimSuffix(strings.TrimPrefix(first, "base64,"), ";")
		raw = strings.TrimSpace(raw)
		dec, err := DecodeBase64Literal(raw)
		if err != nil {
			return nil, p.errorf(span, "invalid base64 literal: %s", err)
		}
		return &Body{Span: p.closeSpan(span), Kind: BodyBase64, Raw: raw, Bytes: dec}, nil
	case strings.HasPrefix(first, "hex,"):
		raw := strings.TrimSuffix(strings.TrimPrefix(first, "hex,"), ";")
		raw = strings.TrimSpace(raw)
		dec, err := DecodeHexLiteral(raw)
		if err != nil {
			return nil, p.errorf(span, "invalid hex literal: %s", err)
		}
		return &Body{Span: p.closeSpan(span), Kind: BodyHex, Raw: raw, Bytes: dec}, nil
	case strings.HasPrefix(first, "file,"):
		raw := strings.TrimSuffix(strings.TrimPrefix(first, "file,"), ";")
		return &Body{Span: p.closeSpan(span), Kind: BodyFile, FileName: strings.TrimSpace(raw)}, nil
	case strings.HasPrefix(first, "<"):
		*p.sc = save
		raw := p.collectUntilEntryBoundary()
		return &Body{Span: p.closeSpan(span), Kind: BodyXML, Raw: raw}, nil
	case strings.HasPrefix(first, "{"):
		*p.sc = save
		raw := p.collectJSONBody()
		return &Body{Span: p.closeSpan(span), Kind: BodyJSON, Raw: raw}, nil
	}
	return nil, p.errorf(span, "unrecognized body literal: %q", first)
}

// parseMultilineBody parses a ```[lang][,attr[,attr]]\n ... \n``` block.
func (p *parser) parseMultilineBody(span Span, openLine string) (*Body, error) {
	header := strings.TrimPrefix(openLine, "```")
	parts := strings.Split(header, ",")
	body := &Body{Kind: BodyMultiline}
	if len(parts) > 0 && parts[0] != "" {
		switch strings.TrimSpace(parts[0]) {
		case "json":
			body.Lang = LangJSON
		case "xml":
			body.Lang = LangXML
		case "graphql":
			body.Lang = LangGraphQL
		case "hex":
			body.Lang = LangHex
		case "base64":
			body.Lang = LangBase64
		}
	}
	for _, attr := range parts[1:] {
		switch strings.TrimSpace(attr) {
		case "escape":
			body.Escape = true
		case "novariable":
			body.NoVariable = true
		}
	}

	var lines []string
	for {
		if p.sc.atEOF() {
			return nil, p.errorf(span, "unterminated multiline string (missing closing ```)")
		}
		line := p.sc.readLine()
		if strings.TrimSpace(line) == "```" {
			break
		}
		lines = append(lines, line)
	}
	body.Raw = strings.Join(lines, "\n")
	body.Span = p.closeSpan(span)

	switch body.Lang {
	case LangBase64:
		dec, err := DecodeBase64Literal(body.Raw)
		if err != nil {
			return nil, p.errorf(span, "invalid base64 literal: %s", err)
		}
		body.Bytes = dec
	case LangHex:
		dec, err := DecodeHexLiteral(body.Raw)
		if err != nil {
			return nil, p.errorf(span, "invalid hex literal: %s", err)
		}
		body.Bytes = dec
	}
	return body, nil
}

// DecodeBase64Literal decodes a `base64,<alphabet with whitespace>;`
// literal's inner text (spec §4.A, "Numeric/bytes literals"). Embedded
// whitespace (spaces, tabs, newlines) is insignificant and stripped
// before decoding.
func DecodeBase64Literal(raw string) ([]byte, error) {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, raw)
	if dec, err := base64.StdEncoding.DecodeString(stripped); err == nil {
		return dec, nil
	}
	return base64.RawStdEncoding.DecodeString(stripped)
}

// DecodeHexLiteral decodes a `hex,HEX*;` literal's inner text, ignoring
// embedded whitespace.
func DecodeHexLiteral(raw string) ([]byte, error) {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, raw)
	return hex.DecodeString(stripped)
}

// collectJSONBody reads a brace-balanced JSON literal, honoring braces
// inside double-quoted strings.
func (p *parser) collectJSONBody() string {
	var b strings.Builder
	depth := 0
	started := false
	inStr := false
	escaped := false
	for !p.sc.atEOF() {
		r, ok := p.sc.advance()
		if !ok {
			break
		}
		b.WriteRune(r)
		if inStr {
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == '"' {
				inStr = false
			}
			continue
		}
		switch r {
		case '"':
			inStr = true
		case '{':
			depth++
			started = true
		case '}':
			depth--
		}
		if started && depth == 0 {
			return strings.TrimSpace(b.String())
		}
	}
	return strings.TrimSpace(b.String())
}

// collectUntilEntryBoundary reads raw lines (used for an XML body) until
// a blank-line-then-section/entry boundary is reached.
func (p *parser) collectUntilEntryBoundary() string {
	var lines []string
	for !p.atEntryBoundary() {
		if p.sc.atEOF() {
			break
		}
		lines = append(lines, p.sc.readLine())
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// atSectionOrEntryBoundary reports whether the next non-blank line opens
// a new bracketed section, a response, a new request, or EOF.
func (p *parser) atSectionOrEntryBoundary() bool {
	save := *p.sc
	defer func() { *p.sc = save }()
	for !p.sc.atEOF() {
		raw := p.sc.readLine()
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, "[") || strings.HasPrefix(line, "HTTP") || looksLikeMethodLine(line)
	}
	return true
}

func (p *parser) atEntryBoundary() bool {
	save := *p.sc
	defer func() { *p.sc = save }()
	for !p.sc.atEOF() {
		raw := p.sc.readLine()
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		return looksLikeMethodLine(line) && !strings.HasPrefix(line, "[")
	}
	return true
}

func looksLikeMethodLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}
	m := fields[0]
	for _, r := range m {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

var errMalformedVariable = &PosError{Msg: `malformed "name=value" in variable option`}
