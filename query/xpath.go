// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/vdobler/hurl/value"
)

// evalXPath evaluates an XPath 1.0 expression (spec §4.C) against body,
// auto-detecting HTML vs. XML the same way the teacher's ValidHTML/
// W3CValidHTML checks (html.go) distinguish document kinds: a leading
// "<html" or "<!doctype" (case-insensitive) selects the HTML parser.
//
// Replaces the teacher's unmaintained launchpad.net/xmlpath dependency
// (see DESIGN.md, Component C) with the antchfx family, a real,
// maintained XPath 1.0 implementation.
func evalXPath(expr string, body []byte) (value.Value, error) {
	trimmed := bytes.TrimSpace(body)
	isHTML := bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<!doctype")) ||
		bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<html"))

	var nav xpath.NodeNavigator
	if isHTML {
		doc, err := htmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("xpath: parse HTML: %s", err)
		}
		nav = htmlquery.CreateXPathNavigator(doc)
	} else {
		doc, err := xmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("xpath: parse XML: %s", err)
		}
		nav = xmlquery.CreateXPathNavigator(doc)
	}

	expression, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("xpath: %s", err)
	}
	result := expression.Evaluate(nav)
	return xpathResultToValue(result), nil
}

func xpathResultToValue(result interface{}) value.Value {
	switch r := result.(type) {
	case bool:
		return value.Bool(r)
	case float64:
		return value.Float64(r)
	case string:
		return value.String(r)
	case *xpath.NodeIterator:
		var texts []string
		for r.MoveNext() {
			texts = append(texts, strings.TrimSpace(r.Current().Value()))
		}
		if len(texts) == 1 {
			return value.String(texts[0])
		}
		lst := make(value.List, len(texts))
		for i, t := range texts {
			lst[i] = value.String(t)
		}
		return lst
	}
	return value.Null{}
}
