// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hurlfile implements the lexer, parser and AST for the Hurl text
// file format (one or more HTTP entries per file).
package hurlfile

import "fmt"

// Span is a contiguous source range, preserved on every AST node for
// diagnostics (spec §3, "Invariants").
type Span struct {
	StartLine, StartCol, StartOffset int
	EndLine, EndCol, EndOffset       int
}

// PosError is a parse error carrying a source span and a single-line,
// specific cause. Grounded on the teacher's ht.PosError (ht/error.go).
type PosError struct {
	File string
	Span Span
	Msg  string
}

func (e *PosError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Span.StartLine, e.Span.StartCol, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Span.StartLine, e.Span.StartCol, e.Msg)
}

// File is the parsed representation of one .hurl source file.
type File struct {
	Name    string
	Entries []*Entry
}

// Entry is one request, with an optional response expectation.
type Entry struct {
	Span     Span
	Request  *Request
	Response *Response // nil if the entry has no response spec
}

// KV is an ordered key/value pair whose Value may itself contain
// templates (rendered at request-build time).
type KV struct {
	Span  Span
	Key   string
	Value string
}

// Request is the request side of an Entry.
type Request struct {
	Span    Span
	Method  string
	URL     string // template
	Headers []KV

	QueryStringParams []KV
	FormParams        []KV
	MultipartFormData []MultipartField
	Cookies           []KV
	BasicAuth         *BasicAuth
	Options           []Option

	Body *Body // nil if request has no body
}

// MultipartField is one entry of a [MultipartFormData] section; either a
// plain Value or a file upload (ContentType/FileName set).
type MultipartField struct {
	Span        Span
	Name        string
	Value       string // template, for plain fields
	FileName    string // set when this field uploads a file
	ContentType string
}

// BasicAuth holds the credentials for a [BasicAuth] section.
type BasicAuth struct {
	Span     Span
	User     string
	Password string
}

// OptionKind discriminates the typed value an [Options] line carries
// (spec §4.A, "Options section").
type OptionKind int

const (
	OptionBool OptionKind = iota
	OptionInt
	OptionDuration
	OptionString
	OptionVariable // "name=value" form used by the `variable` option
)

// Option is one "name: value" line of an [Options] section.
type Option struct {
	Span Span
	Name string
	Kind OptionKind

	Bool     bool
	Int      int64
	Duration int64 // milliseconds
	String   string
	VarName  string // only set when Kind == OptionVariable
	VarValue string
}

// BodyKind discriminates the Body variants of spec §3.
type BodyKind int

const (
	BodyJSON BodyKind = iota
	BodyXML
	BodyMultiline
	BodyOneline
	BodyBase64
	BodyHex
	BodyFile
)

// MultilineLang is the language tag of a triple-backtick multiline string.
type MultilineLang int

const (
	LangNone MultilineLang = iota
	LangJSON
	LangXML
	LangGraphQL
	LangHex
	LangBase64
)

// Body is a request or response body literal.
type Body struct {
	Span Span
	Kind BodyKind

	Raw string // JSON/XML literal text, oneline/multiline text, as written

	Lang       MultilineLang // valid when Kind == BodyMultiline
	Escape     bool          // multiline `escape` attribute
	NoVariable bool          // multiline `novariable` attribute

	Bytes    []byte // decoded bytes for BodyBase64/BodyHex
	FileName string // set when Kind == BodyFile
}

// Response is the expected-response side of an Entry.
type Response struct {
	Span    Span
	Version string // one of HTTP/1.0, HTTP/1.1, HTTP/2, HTTP/3, HTTP, *
	Status  string // non-negative integer, or "*"
	Headers []KV   // implicit asserts

	Captures []Capture
	Asserts  []Assert

	Body *Body // implicit equality assert
}

// QueryKind names one of the fixed queries of spec §4.C.
type QueryKind int

const (
	QueryStatus QueryKind = iota
	QueryURL
	QueryHeader
	QueryCookie
	QueryBody
	QueryBytes
	QueryXPath
	QueryJSONPath
	QueryRegex
	QueryVariable
	QueryDuration
	QuerySHA256
	QueryMD5
	QueryCertificate
	QueryCSS // expansion, see SPEC_FULL.md §3.C
)

// Query is one query invocation, e.g. `header "Location"`.
type Query struct {
	Span Span
	Kind QueryKind
	Arg  string // template; empty for queries that take no argument
}

// FilterCall is one filter in a filter chain, e.g. `regex "([0-9]+)"`.
type FilterCall struct {
	Span Span
	Name string
	Args []string // templates
}

// PredicateKind names one of the fixed predicates of spec §4.E.
type PredicateKind int

const (
	PredEqual PredicateKind = iota
	PredNotEqual
	PredGreaterThan
	PredGreaterOrEqual
	PredLessThan
	PredLessOrEqual
	PredStartsWith
	PredEndsWith
	PredContains
	PredMatches
	PredIncludes
	PredExists
	PredIsEmpty
	PredIsBoolean
	PredIsCollection
	PredIsFloat
	PredIsInteger
	PredIsNumber
	PredIsString
	PredIsDate
	PredIsIsoDate
)

// Predicate is (optional NOT) + function + typed value, per spec §3.
type Predicate struct {
	Span    Span
	Not     bool
	Kind    PredicateKind
	Operand string // literal, templated

	// OperandQuoted records whether Operand was written as a quoted
	// string, backtick string or /regex/ literal, as opposed to a bare
	// word. A bare word is parsed as bool/int/float/null by the
	// evaluator; a quoted operand is always a string (spec §4.E).
	OperandQuoted bool
}

// Capture is (name, Query, FilterChain) from a [Captures] section.
type Capture struct {
	Span    Span
	Name    string
	Query   Query
	Filters []FilterCall
}

// Assert is (Query, FilterChain, Predicate) from an [Asserts] section.
type Assert struct {
	Span      Span
	Query     Query
	Filters   []FilterCall
	Predicate Predicate
}
