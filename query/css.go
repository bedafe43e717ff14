// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/vdobler/hurl/value"
)

// evalCSS implements the expansion `css "SELECTOR"` query (SPEC_FULL.md
// §3.C), a direct port of the teacher's HTMLExtractor (ht/extractor.go):
// text content of all matching elements is returned, joined per match,
// with the same "~text~"/"~rawtext~" magic attribute-name convention for
// selecting an element's text instead of an HTML attribute.
func evalCSS(selector string, body []byte) (value.Value, error) {
	wantAttr := ""
	sel := selector
	if i := strings.IndexByte(selector, '@'); i >= 0 {
		sel, wantAttr = selector[:i], selector[i+1:]
	}

	s, err := cascadia.Parse(sel)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out []string
	for _, n := range cascadia.QueryAll(doc, s) {
		switch wantAttr {
		case "", "text", "~text~":
			out = append(out, strings.TrimSpace(textContent(n)))
		case "rawtext", "~rawtext~":
			out = append(out, textContent(n))
		default:
			for _, a := range n.Attr {
				if a.Key == wantAttr {
					out = append(out, a.Val)
				}
			}
		}
	}
	if len(out) == 0 {
		return value.Null{}, nil
	}
	if len(out) == 1 {
		return value.String(out[0]), nil
	}
	lst := make(value.List, len(out))
	for i, v := range out {
		lst[i] = value.String(v)
	}
	return lst, nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
