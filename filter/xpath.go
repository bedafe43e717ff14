// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"bytes"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/vdobler/hurl/value"
)

// evalXPathBytes backs the "xpath" filter (spec §4.D), sharing the
// HTML-vs-XML auto-detection with query.evalXPath.
func evalXPathBytes(expr string, body []byte) (value.Value, error) {
	trimmed := bytes.TrimSpace(body)
	isHTML := bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<!doctype")) ||
		bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<html"))

	var nav xpath.NodeNavigator
	if isHTML {
		doc, err := htmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, &Error{Filter: "xpath", Msg: err.Error()}
		}
		nav = htmlquery.CreateXPathNavigator(doc)
	} else {
		doc, err := xmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, &Error{Filter: "xpath", Msg: err.Error()}
		}
		nav = xmlquery.CreateXPathNavigator(doc)
	}

	expression, err := xpath.Compile(expr)
	if err != nil {
		return nil, &Error{Filter: "xpath", Msg: err.Error()}
	}
	switch result := expression.Evaluate(nav).(type) {
	case bool:
		return value.Bool(result), nil
	case float64:
		return value.Float64(result), nil
	case string:
		return value.String(result), nil
	case *xpath.NodeIterator:
		var texts []string
		for result.MoveNext() {
			texts = append(texts, strings.TrimSpace(result.Current().Value()))
		}
		if len(texts) == 1 {
			return value.String(texts[0]), nil
		}
		lst := make(value.List, len(texts))
		for i, t := range texts {
			lst[i] = value.String(t)
		}
		return lst, nil
	}
	return value.Null{}, nil
}
