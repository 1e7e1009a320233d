package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/thingpark-broker/internal/codec"
)

func TestRun_Args(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"0212E60003465080CE00000BDD", "0212E600020BDD"}, strings.NewReader(""), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first struct {
		Decoder string             `json:"decoder"`
		Data    map[string]float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "decentlab", first.Decoder)
	assert.Len(t, first.Data, 4)

	var second struct {
		Data map[string]float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, map[string]float64{"batt": 3.037}, second.Data)
}

func TestRun_StdinAndFailure(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, strings.NewReader("0212E600020BDD\n\n0112E600020BDD\n"), &out)
	assert.ErrorIs(t, err, errDecodeFailed)
	assert.Contains(t, out.String(), "doesn't match v2")
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
}

func TestRun_UnknownDecoder(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--decoder", "nope", "00"}, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: decentlab")
}

func TestRun_CBOR(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"--format", "cbor", "0212E600020BDD"}, strings.NewReader(""), &out))

	var doc map[string]any
	require.NoError(t, codec.UnmarshalCBOR(out.Bytes(), &doc))
	assert.Equal(t, "0212E600020BDD", doc["payload"])
	assert.InDelta(t, 3.037, doc["data"].(map[string]any)["batt"], 1e-9)

	err := run([]string{"--format", "xml", "00"}, strings.NewReader(""), &out)
	assert.Error(t, err)
}

func TestRun_List(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"--list"}, strings.NewReader(""), &out))
	assert.True(t, strings.HasPrefix(out.String(), "decentlab\t"))
}
