// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/jsonpath/pkg/jsonpath"
	"github.com/vdobler/hurl/value"
)

// evalJSONPath evaluates a JSONPath expression against a JSON body (spec
// §4.C), replacing the teacher's non-standard gojee boolean-expression
// engine (see DESIGN.md, dropped dependencies) with a real JSONPath
// implementation. speakeasy-api/jsonpath operates on yaml.v3 document
// nodes (valid since JSON is a YAML subset), so the raw body is decoded
// into a *yaml.Node before querying.
func evalJSONPath(expr string, body []byte) (value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(bytes.TrimSpace(body), &doc); err != nil {
		return nil, fmt.Errorf("jsonpath: body is not valid JSON/YAML: %s", err)
	}

	path, err := jsonpath.NewPath(expr)
	if err != nil {
		return nil, fmt.Errorf("jsonpath: %s", err)
	}
	nodes := path.Query(&doc)
	if len(nodes) == 0 {
		return value.Null{}, fmt.Errorf("jsonpath %q matched nothing", expr)
	}
	if len(nodes) == 1 {
		return yamlNodeToValue(nodes[0])
	}
	lst := make(value.List, len(nodes))
	for i, n := range nodes {
		v, err := yamlNodeToValue(n)
		if err != nil {
			return nil, err
		}
		lst[i] = v
	}
	return lst, nil
}

func yamlNodeToValue(n *yaml.Node) (value.Value, error) {
	var raw interface{}
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("jsonpath: %s", err)
	}
	return fromJSONInterface(raw), nil
}

// fromJSONInterface converts the result of a JSON/YAML decode (the usual
// map[string]interface{}/[]interface{}/float64/string/bool/nil shapes)
// into a value.Value, distinguishing integers from floats the same way
// ht/json.go's compareStructure does via reflect.Kind.
func fromJSONInterface(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(v)
	case int:
		return value.Int64(int64(v))
	case int64:
		return value.Int64(v)
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
			lst[i] = fromJSONInterface(e)
		}
		return lst
	case map[string]interface{}:
		obj := make(value.Object, len(v))
		for k, e := range v {
			obj[k] = fromJSONInterface(e)
		}
		return obj
	}
	return value.Null{}
}

// marshalJSONValue renders v back to compact JSON text.
func marshalJSONValue(v value.Value) ([]byte, error) {
	return json.Marshal(toPlainInterface(v))
}

func toPlainInterface(v value.Value) interface{} {
	switch t := v.(type) {
	case value.Null, nil:
		return nil
	case value.Bool:
		return bool(t)
	case value.Int64:
		return int64(t)
	case value.Float64:
		return float64(t)
	case value.String:
		return string(t)
	case value.Bytes:
		return string(t)
	case value.List:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = toPlainInterface(e)
		}
		return out
	case value.Object:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = toPlainInterface(e)
		}
		return out
	}
	return nil
}
