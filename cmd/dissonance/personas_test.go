package main

import (
	"strings"
	"testing"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePersonas_FormatFollowsPath(t *testing.T) {
	list := []core.Persona{{ID: 1, Name: "Board Member", Prompt: "Be skeptical."}}

	data, err := encodePersonas(list, "personas.YML")
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Board Member")

	data, err = encodePersonas(list, "")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Board Member"`)

	data, err = encodePersonas(nil, "out.json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestDecodePersonas(t *testing.T) {
	yamlDoc := "- name: Auditor\n  prompt: |\n    Check every number.\n"
	got, err := decodePersonas([]byte(yamlDoc), "team.yaml")
	require.NoError(t, err)
	assert.Equal(t, []core.Persona{{Name: "Auditor", Prompt: "Check every number.\n"}}, got)

	_, err = decodePersonas([]byte("{not json"), "x.json")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n  b\tc"))

	long := preview(strings.Repeat("abcdefghij ", 8))
	assert.Len(t, []rune(long), 63)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("abc")
	assert.Error(t, err)

	_, err = parseID("-1")
	assert.Error(t, err)
}
