// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/jsonpath/pkg/jsonpath"
	"github.com/vdobler/hurl/value"
)

// evalJSONPathBytes backs the "jsonpath" filter, reusing the same
// yaml.v3-node evaluation strategy as query.evalJSONPath (see
// DESIGN.md, Component D).
func evalJSONPathBytes(expr string, body []byte) (value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(bytes.TrimSpace(body), &doc); err != nil {
		return nil, &Error{Filter: "jsonpath", Msg: fmt.Sprintf("not valid JSON: %s", err)}
	}
	path, err := jsonpath.NewPath(expr)
	if err != nil {
		return nil, &Error{Filter: "jsonpath", Msg: err.Error()}
	}
	nodes := path.Query(&doc)
	if len(nodes) == 0 {
		return nil, &Error{Filter: "jsonpath", Msg: fmt.Sprintf("%q matched nothing", expr)}
	}
	var out value.Value
	if len(nodes) == 1 {
		var raw interface{}
		if err := nodes[0].Decode(&raw); err != nil {
			return nil, &Error{Filter: "jsonpath", Msg: err.Error()}
		}
		out = decodeJSONValue(raw)
		return out, nil
	}
	lst := make(value.List, len(nodes))
	for i, n := range nodes {
		var raw interface{}
		if err := n.Decode(&raw); err != nil {
			return nil, &Error{Filter: "jsonpath", Msg: err.Error()}
		}
		lst[i] = decodeJSONValue(raw)
	}
	return lst, nil
}

func decodeJSONValue(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(v)
	case int:
		return value.Int64(int64(v))
	case float64:
		if v == float64(int64(v)) {
			return value.Int64(int64(v))
		}
		return value.Float64(v)
	case string:
		return value.String(v)
	case []interface{}:
		lst := make(value.List, len(v))
		for i, e := range v {
			lst[i] = decodeJSONValue(e)
		}
		return lst
	case map[string]interface{}:
		obj := make(value.Object, len(v))
		for k, e := range v {
			obj[k] = decodeJSONValue(e)
		}
		return obj
	}
	return value.Null{}
}
