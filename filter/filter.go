// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filter implements the Hurl filter pipeline (spec §4.D): pure
// functions that transform one value.Value into another. The registry
// shape is grounded on the teacher's CheckRegistry/ExtractorRegistry
// (ht.go, ht/extractor.go), adapted from a reflect-based type registry to
// a simple name→func map since filters carry no state across calls.
package filter

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vdobler/hurl/value"
)

// Func is the signature every filter implements.
type Func func(in value.Value, args []string) (value.Value, error)

var registry = map[string]Func{
	"count":         count,
	"decode":        decode,
	"format":        format,
	"htmlEscape":    htmlEscape,
	"htmlUnescape":  htmlUnescape,
	"jsonpath":      jsonpathFilter,
	"nth":           nth,
	"regex":         regexFilter,
	"replace":       replace,
	"split":         split,
	"toDate":        toDate,
	"toFloat":       toFloat,
	"toInt":         toInt,
	"urlDecode":     urlDecode,
	"urlEncode":     urlEncode,
	"xpath":         xpathFilter,
	"daysAfterNow":  daysAfterNow,
	"daysBeforeNow": daysBeforeNow,
}

// Error reports a filter whose input type is incompatible (spec §4.D:
// "fails with a structured runtime error naming the filter and observed
// type").
type Error struct {
	Filter string
	Got    value.Kind
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("filter %q: %s", e.Filter, e.Msg)
	}
	return fmt.Sprintf("invalid input for filter %s: got %s", e.Filter, e.Got)
}

// Apply runs the named filter on in with the given argument tokens.
func Apply(name string, in value.Value, args []string) (value.Value, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("no such filter %q", name)
	}
	return f(in, args)
}

func count(in value.Value, _ []string) (value.Value, error) {
	switch v := in.(type) {
	case value.List:
		return value.Int64(len(v)), nil
	case value.Object:
		return value.Int64(len(v)), nil
	case value.String:
		return value.Int64(len(v)), nil
	case value.Bytes:
		return value.Int64(len(v)), nil
	}
	return nil, &Error{Filter: "count", Got: in.Kind()}
}

func decode(in value.Value, args []string) (value.Value, error) {
	b, ok := in.(value.Bytes)
	if !ok {
		if s, ok := in.(value.String); ok {
			b = value.Bytes(s)
		} else {
			return nil, &Error{Filter: "decode", Got: in.Kind()}
		}
	}
	if len(args) == 0 {
		return nil, &Error{Filter: "decode", Msg: "requires a charset argument"}
	}
	switch strings.ToLower(args[0]) {
	case "utf-8", "utf8":
		return value.String(string(b)), nil
	case "iso-8859-1", "latin1":
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return value.String(string(runes)), nil
	}
	return nil, &Error{Filter: "decode", Msg: fmt.Sprintf("unsupported charset %q", args[0])}
}

func format(in value.Value, args []string) (value.Value, error) {
	d, ok := in.(value.Date)
	if !ok {
		return nil, &Error{Filter: "format", Got: in.Kind()}
	}
	if len(args) == 0 {
		return nil, &Error{Filter: "format", Msg: "requires a strftime format argument"}
	}
	return value.String(time.Time(d).Format(strftimeToGo(args[0]))), nil
}

func htmlEscape(in value.Value, _ []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "htmlEscape", Got: in.Kind()}
	}
	return value.String(html.EscapeString(s)), nil
}

func htmlUnescape(in value.Value, _ []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "htmlUnescape", Got: in.Kind()}
	}
	return value.String(html.UnescapeString(s)), nil
}

func jsonpathFilter(in value.Value, args []string) (value.Value, error) {
	if len(args) == 0 {
		return nil, &Error{Filter: "jsonpath", Msg: "requires a JSONPath expression argument"}
	}
	b, err := jsonBytesOf(in)
	if err != nil {
		return nil, &Error{Filter: "jsonpath", Got: in.Kind()}
	}
	return evalJSONPathBytes(args[0], b)
}

func xpathFilter(in value.Value, args []string) (value.Value, error) {
	if len(args) == 0 {
		return nil, &Error{Filter: "xpath", Msg: "requires an XPath expression argument"}
	}
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "xpath", Got: in.Kind()}
	}
	return evalXPathBytes(args[0], []byte(s))
}

func nth(in value.Value, args []string) (value.Value, error) {
	lst, ok := in.(value.List)
	if !ok {
		return nil, &Error{Filter: "nth", Got: in.Kind()}
	}
	if len(args) == 0 {
		return nil, &Error{Filter: "nth", Msg: "requires an index argument"}
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, &Error{Filter: "nth", Msg: "index must be an integer"}
	}
	if i < 0 || i >= len(lst) {
		return nil, &Error{Filter: "nth", Msg: fmt.Sprintf("index %d out of range (len %d)", i, len(lst))}
	}
	return lst[i], nil
}

func regexFilter(in value.Value, args []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "regex", Got: in.Kind()}
	}
	if len(args) == 0 {
		return nil, &Error{Filter: "regex", Msg: "requires a pattern argument"}
	}
	re, err := regexp.Compile(args[0])
	if err != nil {
		return nil, &Error{Filter: "regex", Msg: err.Error()}
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, &Error{Filter: "regex", Msg: fmt.Sprintf("pattern %q did not match", args[0])}
	}
	if len(m) > 1 {
		return value.String(m[1]), nil
	}
	return value.String(m[0]), nil
}

func replace(in value.Value, args []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "replace", Got: in.Kind()}
	}
	if len(args) < 2 {
		return nil, &Error{Filter: "replace", Msg: "requires pattern and replacement arguments"}
	}
	re, err := regexp.Compile(args[0])
	if err != nil {
		return nil, &Error{Filter: "replace", Msg: err.Error()}
	}
	return value.String(re.ReplaceAllString(s, args[1])), nil
}

func split(in value.Value, args []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "split", Got: in.Kind()}
	}
	if len(args) == 0 {
		return nil, &Error{Filter: "split", Msg: "requires a separator argument"}
	}
	parts := strings.Split(s, args[0])
	lst := make(value.List, len(parts))
	for i, p := range parts {
		lst[i] = value.String(p)
	}
	return lst, nil
}

func toDate(in value.Value, args []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "toDate", Got: in.Kind()}
	}
	layout := time.RFC3339
	if len(args) > 0 && args[0] != "%+" {
		layout = strftimeToGo(args[0])
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, &Error{Filter: "toDate", Msg: err.Error()}
	}
	return value.Date(t), nil
}

func toFloat(in value.Value, _ []string) (value.Value, error) {
	switch v := in.(type) {
	case value.Float64:
		return v, nil
	case value.Int64:
		return value.Float64(v), nil
	case value.String:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, &Error{Filter: "toFloat", Msg: err.Error()}
		}
		return value.Float64(f), nil
	}
	return nil, &Error{Filter: "toFloat", Got: in.Kind()}
}

func toInt(in value.Value, _ []string) (value.Value, error) {
	switch v := in.(type) {
	case value.Int64:
		return v, nil
	case value.Float64:
		return value.Int64(int64(v)), nil
	case value.String:
		i, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return nil, &Error{Filter: "toInt", Msg: err.Error()}
		}
		return value.Int64(i), nil
	}
	return nil, &Error{Filter: "toInt", Got: in.Kind()}
}

func urlDecode(in value.Value, _ []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "urlDecode", Got: in.Kind()}
	}
	out, err := url.QueryUnescape(s)
	if err != nil {
		return nil, &Error{Filter: "urlDecode", Msg: err.Error()}
	}
	return value.String(out), nil
}

func urlEncode(in value.Value, _ []string) (value.Value, error) {
	s, ok := asString(in)
	if !ok {
		return nil, &Error{Filter: "urlEncode", Got: in.Kind()}
	}
	return value.String(url.QueryEscape(s)), nil
}

func daysAfterNow(in value.Value, _ []string) (value.Value, error) {
	d, ok := in.(value.Date)
	if !ok {
		return nil, &Error{Filter: "daysAfterNow", Got: in.Kind()}
	}
	days := time.Until(time.Time(d)).Hours() / 24
	return value.Int64(int64(days)), nil
}

func daysBeforeNow(in value.Value, _ []string) (value.Value, error) {
	d, ok := in.(value.Date)
	if !ok {
		return nil, &Error{Filter: "daysBeforeNow", Got: in.Kind()}
	}
	days := time.Since(time.Time(d)).Hours() / 24
	return value.Int64(int64(days)), nil
}

func asString(v value.Value) (string, bool) {
	switch t := v.(type) {
	case value.String:
		return string(t), true
	case value.Bytes:
		return string(t), true
	}
	return "", false
}

func jsonBytesOf(v value.Value) ([]byte, error) {
	s, ok := asString(v)
	if !ok {
		return nil, fmt.Errorf("not a string/bytes value")
	}
	return []byte(s), nil
}

// strftimeToGo converts the small subset of strftime directives Hurl's
// "format"/"toDate" filters need into Go's reference-time layout.
func strftimeToGo(f string) string {
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%z", "-0700", "%Z", "MST",
	)
	return r.Replace(f)
}
