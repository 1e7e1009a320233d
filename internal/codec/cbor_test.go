package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/thingpark-broker/internal/protocol/decentlab"
)

func TestMarshalCBOR_DecodeResult(t *testing.T) {
	res, err := decentlab.DecodeHex("0212E60003465080CE00000BDD")
	require.NoError(t, err)

	b, err := MarshalCBOR(res)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, UnmarshalCBOR(b, &doc))
	assert.EqualValues(t, 4838, doc["device_id"])
	assert.EqualValues(t, 2, doc["protocol_version"])

	ms, ok := doc["measurements"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, ms, 5)

	batt := ms["battery_voltage"].(map[string]any)
	assert.InDelta(t, 3.037, batt["value"], 1e-9)
	assert.Equal(t, "V", batt["unit"])

	dp := ms["dielectric_permittivity"].(map[string]any)
	assert.Nil(t, dp["unit"])
}

func TestMarshalCBOR_Deterministic(t *testing.T) {
	a, err := MarshalCBOR(map[string]any{"b": 1, "a": 2.5, "c": []int{1, 2}})
	require.NoError(t, err)
	b, err := MarshalCBOR(map[string]any{"c": []int{1, 2}, "a": 2.5, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// 整值测量值（3.000 V）仍编码为浮点，整数字段保持整数
func TestMarshalCBOR_WholeMeasurementStaysFloat(t *testing.T) {
	res, err := decentlab.DecodeHex("0212E600020BB8")
	require.NoError(t, err)

	b, err := MarshalCBOR(map[string]any{"result": res, "data": res.Projection()})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, UnmarshalCBOR(b, &doc))

	result := doc["result"].(map[string]any)
	assert.IsType(t, uint64(0), result["device_id"])
	batt := result["measurements"].(map[string]any)["battery_voltage"].(map[string]any)
	assert.Equal(t, 3.0, batt["value"])

	data := doc["data"].(map[string]any)
	assert.Equal(t, 3.0, data["batt"])
}
