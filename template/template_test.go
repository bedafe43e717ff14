// Copyright 2017 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdobler/hurl/value"
)

func TestRenderPositionKeepsType(t *testing.T) {
	scope := value.Scope{"count": value.Int64(3)}

	v, err := Render("count", scope, Position)
	require.NoError(t, err)
	assert.Equal(t, value.Int64(3), v)
}

func TestRenderTextStringifies(t *testing.T) {
	scope := value.Scope{"count": value.Int64(3)}

	v, err := Render("count", scope, Text)
	require.NoError(t, err)
	assert.Equal(t, value.String("3"), v)
}

func TestRenderUndefinedVariable(t *testing.T) {
	_, err := Render("missing", value.Scope{}, Position)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
}

func TestRenderWithFilterPipeline(t *testing.T) {
	scope := value.Scope{"name": value.String("Hello World")}

	v, err := Render(`name replace "World" "There"`, scope, Text)
	require.NoError(t, err)
	assert.Equal(t, value.String("Hello There"), v)
}

func TestApplyTemplateStringSubstitutesEmbedded(t *testing.T) {
	scope := value.Scope{"host": value.String("example.org"), "id": value.Int64(42)}

	got, err := ApplyTemplateString("https://{{host}}/items/{{id}}", scope)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/items/42", got)
}

func TestApplyTemplateStringUnterminated(t *testing.T) {
	_, err := ApplyTemplateString("https://{{host", value.Scope{"host": value.String("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated")
}

func TestApplyTemplateStringNoTemplate(t *testing.T) {
	got, err := ApplyTemplateString("plain text, no braces", value.Scope{})
	require.NoError(t, err)
	assert.Equal(t, "plain text, no braces", got)
}

func TestRenderTextRejectsCollections(t *testing.T) {
	scope := value.Scope{"list": value.List{value.Int64(1), value.Int64(2)}}

	_, err := Render("list", scope, Text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot serialize")
}
