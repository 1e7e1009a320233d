package forward

import (
	"time"

	"github.com/taoyao-code/thingpark-broker/internal/protocol/decentlab"
)

// DefaultEntityType 默认 NGSI 实体类型
const DefaultEntityType = "SoilProbeObserved"

// Meta 设备元数据（来自 datalogger 登记表）
type Meta struct {
	DevID     string
	Latitude  *float64
	Longitude *float64
	Country   string
	Locality  string
	Street    string
}

// Location GeoJSON Point，坐标顺序 [lon, lat]
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Address NGSI 地址
type Address struct {
	Country  string `json:"addressCountry"`
	Locality string `json:"addressLocality"`
	Street   string `json:"streetAddress"`
}

// Observation 转发的固定结构观测记录；测量字段在来源块未激活时缺省
type Observation struct {
	ID                     string    `json:"id"`
	Type                   string    `json:"type"`
	DateObserved           string    `json:"dateObserved"`
	Location               *Location `json:"location,omitempty"`
	Address                Address   `json:"address"`
	DielectricPermittivity *float64  `json:"dielectric_permittivity,omitempty"`
	VolumetricWaterContent *float64  `json:"volumetric_water_content,omitempty"`
	ElectricalConductivity *float64  `json:"electrical_conductivity,omitempty"`
	Batt                   *float64  `json:"batt,omitempty"`
}

// BuildObservation 由设备元数据与投影字段构建观测记录。
// 任一坐标缺失时整体省略 location。
func BuildObservation(entityType string, meta Meta, observedAt time.Time, fields map[string]any) Observation {
	if entityType == "" {
		entityType = DefaultEntityType
	}
	obs := Observation{
		ID:           meta.DevID,
		Type:         entityType,
		DateObserved: observedAt.UTC().Format(time.RFC3339Nano),
		Address: Address{
			Country:  meta.Country,
			Locality: meta.Locality,
			Street:   meta.Street,
		},
		DielectricPermittivity: floatField(fields, decentlab.ProjDielectricPermittivity),
		VolumetricWaterContent: floatField(fields, decentlab.ProjVolumetricWaterContent),
		ElectricalConductivity: floatField(fields, decentlab.ProjElectricalConductivity),
		Batt:                   floatField(fields, decentlab.ProjBattery),
	}
	if meta.Latitude != nil && meta.Longitude != nil {
		obs.Location = &Location{Type: "Point", Coordinates: []float64{*meta.Longitude, *meta.Latitude}}
	}
	return obs
}

func floatField(fields map[string]any, key string) *float64 {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint16:
		f = float64(n)
	default:
		return nil
	}
	return &f
}
