package decentlab

import (
	"bytes"
	"encoding/json"
)

// Measurement 单个命名测量值
type Measurement struct {
	Key   string
	Name  string
	Value float64
	Unit  *string
}

// Result 完整解码结果，测量值按目录遍历顺序排列
type Result struct {
	DeviceID        uint16
	ProtocolVersion uint8
	Measurements    []Measurement
}

// Get 按键名查找测量值
func (r *Result) Get(key string) (Measurement, bool) {
	for _, m := range r.Measurements {
		if m.Key == key {
			return m, true
		}
	}
	return Measurement{}, false
}

// 投影键名
const (
	ProjDielectricPermittivity = "dielectric_permittivity"
	ProjVolumetricWaterContent = "volumetric_water_content"
	ProjElectricalConductivity = "electrical_conductivity"
	ProjBattery                = "batt"
)

// projectionSources 投影键 -> 测量键。soil_temperature 不在投影内。
var projectionSources = []struct{ proj, key string }{
	{ProjDielectricPermittivity, KeyDielectricPermittivity},
	{ProjVolumetricWaterContent, KeyVolumetricWaterContent},
	{ProjElectricalConductivity, KeyElectricalConductivity},
	{ProjBattery, KeyBatteryVoltage},
}

// Projection 转发使用的精简字段集，键集合随激活的传感器块变化
type Projection map[string]float64

// Projection 构建投影；来源块未激活时对应键缺省
func (r *Result) Projection() Projection {
	p := make(Projection, len(projectionSources))
	for _, s := range projectionSources {
		if m, ok := r.Get(s.key); ok {
			p[s.proj] = m.Value
		}
	}
	return p
}

type jsonValue struct {
	Value float64 `json:"value"`
	Unit  *string `json:"unit"`
}

// MarshalJSON 以有序对象输出测量值
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"device_id":`)
	b, _ := json.Marshal(r.DeviceID)
	buf.Write(b)
	buf.WriteString(`,"protocol_version":`)
	b, _ = json.Marshal(r.ProtocolVersion)
	buf.Write(b)
	buf.WriteString(`,"measurements":{`)
	for i, m := range r.Measurements {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(jsonValue{Value: m.Value, Unit: m.Unit})
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}
