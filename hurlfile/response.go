// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurlfile

import (
	"fmt"
	"strings"
)

func (p *parser) parseResponse() (*Response, error) {
	span := p.spanHere()
	line := strings.TrimSpace(stripComment(p.sc.readLine()))
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, p.errorf(span, "expected 'HTTP <status>', got %q", line)
	}
	resp := &Response{Version: fields[0], Status: fields[1]}

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
			if responseSections[name] {
				if err := p.parseResponseSection(resp, name); err != nil {
					return nil, err
				}
				continue
			}
			*p.sc = save
			break
		}
		if looksLikeBodyStart(line) {
			*p.sc = save
			body, err := p.parseBody()
			if err != nil {
				return nil, err
			}
			resp.Body = body
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
		resp.Headers = append(resp.Headers, KV{Key: decodedKey, Value: strings.TrimSpace(val)})
	}
	resp.Span = p.closeSpan(span)
	return resp, nil
}

func (p *parser) parseResponseSection(resp *Response, name string) error {
	switch name {
	case "Captures":
		for {
			if p.atSectionOrEntryBoundary() {
				return nil
			}
			save := *p.sc
			line := strings.TrimSpace(stripComment(p.sc.readLine()))
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "[") {
				*p.sc = save
				return nil
			}
			cap, err := parseCaptureLine(line)
			if err != nil {
				return p.errorf(p.spanHere(), "%s", err)
			}
			resp.Captures = append(resp.Captures, cap)
		}
	case "Asserts":
		for {
			if p.atSectionOrEntryBoundary() {
				return nil
			}
			save := *p.sc
			line := strings.TrimSpace(stripComment(p.sc.readLine()))
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "[") {
				*p.sc = save
				return nil
			}
			a, err := parseAssertLine(line)
			if err != nil {
				return p.errorf(p.spanHere(), "%s", err)
			}
			resp.Asserts = append(resp.Asserts, a)
		}
	}
	return nil
}

// queryKeywords maps the query names of spec §4.C to their QueryKind.
var queryKeywords = map[string]QueryKind{
	"status":      QueryStatus,
	"url":         QueryURL,
	"header":      QueryHeader,
	"cookie":      QueryCookie,
	"body":        QueryBody,
	"bytes":       QueryBytes,
	"xpath":       QueryXPath,
	"jsonpath":    QueryJSONPath,
	"regex":       QueryRegex,
	"variable":    QueryVariable,
	"duration":    QueryDuration,
	"sha256":      QuerySHA256,
	"md5":         QueryMD5,
	"certificate": QueryCertificate,
	"css":         QueryCSS,
}

var queryTakesArg = map[QueryKind]bool{
	QueryHeader:      true,
	QueryCookie:      true,
	QueryXPath:       true,
	QueryJSONPath:    true,
	QueryRegex:       true,
	QueryVariable:    true,
	QueryCertificate: true,
	QueryCSS:         true,
}

var predicateKeywords = map[string]PredicateKind{
	"==":               PredEqual,
	"equals":           PredEqual,
	"!=":               PredNotEqual,
	">":                PredGreaterThan,
	">=":               PredGreaterOrEqual,
	"<":                PredLessThan,
	"<=":               PredLessOrEqual,
	"startsWith":       PredStartsWith,
	"endsWith":         PredEndsWith,
	"contains":         PredContains,
	"matches":          PredMatches,
	"includes":         PredIncludes,
	"exists":           PredExists,
	"isEmpty":          PredIsEmpty,
	"isBoolean":        PredIsBoolean,
	"isCollection":     PredIsCollection,
	"isFloat":          PredIsFloat,
	"isInteger":        PredIsInteger,
	"isNumber":         PredIsNumber,
	"isString":         PredIsString,
	"isDate":           PredIsDate,
	"isIsoDate":        PredIsIsoDate,
}

// predicateNoOperand are predicates that never take a trailing operand
// token (exists/isEmpty/type tests).
var predicateNoOperand = map[PredicateKind]bool{
	PredExists: true, PredIsEmpty: true, PredIsBoolean: true,
	PredIsCollection: true, PredIsFloat: true, PredIsInteger: true,
	PredIsNumber: true, PredIsString: true, PredIsDate: true, PredIsIsoDate: true,
}

// parseCaptureLine parses "name: query [filter...]".
func parseCaptureLine(line string) (Capture, error) {
	key, rest, ok := splitKeyValue(line)
	if !ok {
		return Capture{}, errf("expected 'name: query', got %q", line)
	}
	name := strings.TrimSpace(key)
	toks, err := tokenizeLine(strings.TrimSpace(rest))
	if err != nil {
		return Capture{}, err
	}
	q, n, err := parseQueryTokens(toks)
	if err != nil {
		return Capture{}, err
	}
	filters, err := parseFilterTokens(toks[n:])
	if err != nil {
		return Capture{}, err
	}
	return Capture{Name: name, Query: q, Filters: filters}, nil
}

// parseAssertLine parses "query [filter...] [not] predicate [operand]".
func parseAssertLine(line string) (Assert, error) {
	toks, err := tokenizeLine(line)
	if err != nil {
		return Assert{}, err
	}
	q, n, err := parseQueryTokens(toks)
	if err != nil {
		return Assert{}, err
	}
	rest := toks[n:]
	filters, n2, err := consumeFilterTokens(rest)
	if err != nil {
		return Assert{}, err
	}
	rest = rest[n2:]
	pred, err := parsePredicateTokens(rest)
	if err != nil {
		return Assert{}, err
	}
	return Assert{Query: q, Filters: filters, Predicate: pred}, nil
}

func parseQueryTokens(toks []token) (Query, int, error) {
	if len(toks) == 0 {
		return Query{}, 0, errf("expected a query, got end of line")
	}
	kind, ok := queryKeywords[toks[0].text]
	if !ok {
		return Query{}, 0, errf("unknown query %q", toks[0].text)
	}
	q := Query{Kind: kind}
	n := 1
	if queryTakesArg[kind] {
		if len(toks) < 2 {
			return Query{}, 0, errf("query %q requires an argument", toks[0].text)
		}
		q.Arg = toks[1].text
		n = 2
	}
	return q, n, nil
}

// parseFilterTokens consumes all remaining tokens as a filter chain (used
// by Captures, which have nothing following the chain).
func parseFilterTokens(toks []token) ([]FilterCall, error) {
	filters, n, err := consumeFilterTokens(toks)
	if err != nil {
		return nil, err
	}
	if n != len(toks) {
		return nil, errf("unexpected trailing tokens after filter chain: %v", toks[n:])
	}
	return filters, nil
}

// filterArgCount records how many argument tokens each filter consumes.
var filterArgCount = map[string]int{
	"count": 0, "htmlEscape": 0, "htmlUnescape": 0, "urlDecode": 0, "urlEncode": 0,
	"daysAfterNow": 0, "daysBeforeNow": 0, "toFloat": 0, "toInt": 0,
	"decode": 1, "format": 1, "jsonpath": 1, "nth": 1, "regex": 1, "split": 1, "toDate": 1, "xpath": 1,
	"replace": 2,
}

// consumeFilterTokens greedily consumes a run of filter invocations from
// the front of toks (stopping at the first token that is not a known
// filter name, e.g. "not" or a predicate keyword), returning how many
// tokens were consumed.
func consumeFilterTokens(toks []token) ([]FilterCall, int, error) {
	var filters []FilterCall
	i := 0
	for i < len(toks) {
		argc, known := filterArgCount[toks[i].text]
		if !known {
			break
		}
		if i+1+argc > len(toks) {
			return nil, 0, errf("filter %q requires %d argument(s)", toks[i].text, argc)
		}
		fc := FilterCall{Name: toks[i].text}
		for a := 0; a < argc; a++ {
			fc.Args = append(fc.Args, toks[i+1+a].text)
		}
		filters = append(filters, fc)
		i += 1 + argc
	}
	return filters, i, nil
}

func parsePredicateTokens(toks []token) (Predicate, error) {
	if len(toks) == 0 {
		return Predicate{}, errf("expected a predicate, got end of line")
	}
	pred := Predicate{}
	i := 0
	if toks[i].text == "not" {
		pred.Not = true
		i++
	}
	if i >= len(toks) {
		return Predicate{}, errf("expected a predicate after 'not'")
	}
	kind, ok := predicateKeywords[toks[i].text]
	if !ok {
		return Predicate{}, errf("unknown predicate %q", toks[i].text)
	}
	pred.Kind = kind
	i++
	if predicateNoOperand[kind] {
		return pred, nil
	}
	if i >= len(toks) {
		return Predicate{}, errf("predicate %q requires an operand", toks[i-1].text)
	}
	pred.Operand = toks[i].text
	pred.OperandQuoted = toks[i].quoted
	return pred, nil
}

// token is one lexical element of a query/filter/predicate line: either a
// bare word or a decoded quoted/backtick/regex-literal string.
type token struct {
	text   string
	quoted bool
}

// tokenizeLine splits a single line into tokens, honoring double-quoted
// strings, backtick strings, and /regex/ literals as single tokens (spec
// §4.E, "matches: ... supports '\"…\"' and '/…/' literals").
func tokenizeLine(line string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		switch line[i] {
		case '"':
			val, n, err := parseQuotedString(line[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{text: val, quoted: true})
			i += n
		case '`':
			val, n, err := parseBacktickString(line[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{text: val, quoted: true})
			i += n
		case '/':
			end := strings.IndexByte(line[i+1:], '/')
			if end < 0 {
				toks = append(toks, readBareWord(line, &i))
				continue
			}
			toks = append(toks, token{text: line[i+1 : i+1+end], quoted: true})
			i += end + 2
		default:
			toks = append(toks, readBareWord(line, &i))
		}
	}
	return toks, nil
}

func readBareWord(line string, i *int) token {
	start := *i
	for *i < len(line) && line[*i] != ' ' && line[*i] != '\t' {
		*i++
	}
	return token{text: line[start:*i]}
}

func errf(format string, args ...interface{}) error {
	return &PosError{Msg: fmt.Sprintf(format, args...)}
}
