// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vdobler/hurl/filter"
	"github.com/vdobler/hurl/hurlfile"
	"github.com/vdobler/hurl/predicate"
	"github.com/vdobler/hurl/query"
	"github.com/vdobler/hurl/template"
	"github.com/vdobler/hurl/value"
)

// evalChain evaluates q then applies filters left to right (spec §4.D,
// "Chaining preserves type through each stage").
func evalChain(q hurlfile.Query, filters []hurlfile.FilterCall, exec query.Exec, scope value.Scope) (value.Value, error) {
	v, err := query.Eval(q, exec, scope.Get)
	if err != nil {
		return nil, err
	}
	for _, f := range filters {
		args := make([]string, len(f.Args))
		for i, a := range f.Args {
			rendered, err := template.ApplyTemplateString(a, scope)
			if err != nil {
				return nil, err
			}
			args[i] = rendered
		}
		v, err = filter.Apply(f.Name, v, args)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// evalOperand resolves a Predicate's rendered operand into a typed
// value.Value. A bare `{{expr}}` operand (no surrounding text) keeps its
// runtime type (Position context, spec §4.B); anything else renders as
// text and is then re-typed by literal syntax, matching how a `.hurl`
// author writes `== 5`, `== true`, `== "5"` or `== null`.
func evalOperand(pred hurlfile.Predicate, scope value.Scope) (value.Value, error) {
	op := pred.Operand
	if strings.HasPrefix(op, "{{") && strings.HasSuffix(op, "}}") && !strings.Contains(op[2:len(op)-2], "{{") {
		return template.Render(strings.TrimSpace(op[2:len(op)-2]), scope, template.Position)
	}
	rendered, err := template.ApplyTemplateString(op, scope)
	if err != nil {
		return nil, err
	}
	if pred.OperandQuoted {
		return value.String(rendered), nil
	}
	switch rendered {
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	case "null":
		return value.Null{}, nil
	}
	if strings.HasPrefix(rendered, "base64,") && strings.HasSuffix(rendered, ";") {
		raw := strings.TrimSuffix(strings.TrimPrefix(rendered, "base64,"), ";")
		dec, err := hurlfile.DecodeBase64Literal(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 literal %q: %w", rendered, err)
		}
		return value.Bytes(dec), nil
	}
	if strings.HasPrefix(rendered, "hex,") && strings.HasSuffix(rendered, ";") {
		raw := strings.TrimSuffix(strings.TrimPrefix(rendered, "hex,"), ";")
		dec, err := hurlfile.DecodeHexLiteral(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid hex literal %q: %w", rendered, err)
		}
		return value.Bytes(dec), nil
	}
	if i, err := strconv.ParseInt(rendered, 10, 64); err == nil {
		return value.Int64(i), nil
	}
	if f, err := strconv.ParseFloat(rendered, 64); err == nil {
		return value.Float64(f), nil
	}
	return value.String(rendered), nil
}

// evalAssert evaluates one explicit [Asserts] line, describing it for
// the result.AssertResult regardless of outcome (spec §7, "Reporting").
func evalAssert(a hurlfile.Assert, exec query.Exec, scope value.Scope) (string, bool, error) {
	desc := describeAssert(a)
	actual, err := evalChain(a.Query, a.Filters, exec, scope)
	if err != nil {
		// exists/isEmpty-style predicates over a query that legitimately
		// returned nothing are handled by predicate.Eval against Null;
		// any other query error is a hard failure.
		if !isExistsLike(a.Predicate.Kind) {
			return desc, false, err
		}
		actual = value.Null{}
	}
	operand, err := evalOperand(a.Predicate, scope)
	if err != nil {
		return desc, false, err
	}
	if err := predicate.Eval(a.Predicate, actual, operand); err != nil {
		return desc, false, err
	}
	return desc, true, nil
}

func isExistsLike(k hurlfile.PredicateKind) bool {
	return k == hurlfile.PredExists || k == hurlfile.PredIsEmpty
}

func describeAssert(a hurlfile.Assert) string {
	var b strings.Builder
	b.WriteString(queryName(a.Query))
	for _, f := range a.Filters {
		fmt.Fprintf(&b, " %s", f.Name)
	}
	if a.Predicate.Not {
		b.WriteString(" not")
	}
	fmt.Fprintf(&b, " %s", predicateName(a.Predicate.Kind))
	if a.Predicate.Operand != "" {
		fmt.Fprintf(&b, " %q", a.Predicate.Operand)
	}
	return b.String()
}

func queryName(q hurlfile.Query) string {
	names := [...]string{"status", "url", "header", "cookie", "body", "bytes",
		"xpath", "jsonpath", "regex", "variable", "duration", "sha256", "md5",
		"certificate", "css"}
	name := "query"
	if int(q.Kind) < len(names) {
		name = names[q.Kind]
	}
	if q.Arg != "" {
		return fmt.Sprintf("%s %q", name, q.Arg)
	}
	return name
}

func predicateName(k hurlfile.PredicateKind) string {
	names := [...]string{"==", "!=", ">", ">=", "<", "<=", "startsWith",
		"endsWith", "contains", "matches", "includes", "exists", "isEmpty",
		"isBoolean", "isCollection", "isFloat", "isInteger", "isNumber",
		"isString", "isDate", "isIsoDate"}
	if int(k) < len(names) {
		return names[k]
	}
	return "predicate"
}

// evalCapture evaluates one [Captures] line; the resulting value is
// bound into scope by the caller on success (spec §4.H step 3f).
func evalCapture(c hurlfile.Capture, exec query.Exec, scope value.Scope) (value.Value, error) {
	return evalChain(c.Query, c.Filters, exec, scope)
}

// implicitCheck is one evaluated implicit header/body expectation.
type implicitCheck struct {
	Desc string
	Pass bool
	Err  error
}

// implicitAsserts evaluates a response's implicit header/body
// expectations (spec §3, "Invariant: a response's implicit body ... is
// equivalent to an explicit body == <literal> assert").
func implicitAsserts(resp *hurlfile.Response, exec query.Exec, scope value.Scope) []implicitCheck {
	var out []implicitCheck
	for _, h := range resp.Headers {
		wantRaw, err := template.ApplyTemplateString(h.Value, scope)
		desc := fmt.Sprintf("header %q == %q", h.Key, h.Value)
		if err != nil {
			out = append(out, implicitCheck{desc, false, err})
			continue
		}
		got := exec.Header().Get(h.Key)
		out = append(out, implicitCheck{desc, got == wantRaw, nil})
	}
	if resp.Body != nil {
		want, err := buildBody(resp.Body, scope, "")
		desc := "body == <literal>"
		if err != nil {
			out = append(out, implicitCheck{desc, false, err})
		} else {
			out = append(out, implicitCheck{desc, string(exec.BodyBytes()) == string(want), nil})
		}
	}
	return out
}
