package decentlab

import "math"

// Conversion 字值到物理量的换算方式（固定枚举）
type Conversion uint8

const (
	ConvDielectricPermittivity Conversion = iota + 1
	ConvVolumetricWaterContent
	ConvSoilTemperature
	ConvElectricalConductivity
	ConvBatteryVoltage
)

// apply 对所属传感器块的全部字执行换算
func (c Conversion) apply(w []uint16) float64 {
	switch c {
	case ConvDielectricPermittivity:
		x := float64(w[0]) / 10
		return math.Pow(0.000000002887*math.Pow(x, 3)-0.0000208*math.Pow(x, 2)+0.05276*x-43.39, 2)
	case ConvVolumetricWaterContent:
		return float64(w[0])/10*0.0003879 - 0.6956
	case ConvSoilTemperature:
		return (float64(w[1]) - 32768) / 10
	case ConvElectricalConductivity:
		return float64(w[2])
	case ConvBatteryVoltage:
		return float64(w[0]) / 1000
	}
	return math.NaN()
}

// ValueKind 值槽类型
type ValueKind uint8

const (
	Measured ValueKind = iota + 1
	Reserved           // 预留槽位：无输出，不额外消费字
)

// ValueSpec 传感器块内的一个值槽
type ValueSpec struct {
	Kind       ValueKind
	Key        string // 结果中的键名（全目录唯一）
	Name       string // 展示名称
	Unit       string // 空串表示无单位
	Conversion Conversion
}

func measured(key, name, unit string, conv Conversion) ValueSpec {
	return ValueSpec{Kind: Measured, Key: key, Name: name, Unit: unit, Conversion: conv}
}

// SensorBlock 一个传感器块：固定字数 + 有序值槽
type SensorBlock struct {
	WordCount int
	Values    []ValueSpec
}

// 测量值键名
const (
	KeyDielectricPermittivity = "dielectric_permittivity"
	KeyVolumetricWaterContent = "volumetric_water_content"
	KeySoilTemperature        = "soil_temperature"
	KeyElectricalConductivity = "electrical_conductivity"
	KeyBatteryVoltage         = "battery_voltage"
)

// catalog DL-TRS12 传感器目录，顺序即位图位序，进程内只读
var catalog = []SensorBlock{
	{
		WordCount: 3,
		Values: []ValueSpec{
			measured(KeyDielectricPermittivity, "Dielectric permittivity", "", ConvDielectricPermittivity),
			measured(KeyVolumetricWaterContent, "Volumetric water content", "m³⋅m⁻³", ConvVolumetricWaterContent),
			measured(KeySoilTemperature, "Soil temperature", "°C", ConvSoilTemperature),
			measured(KeyElectricalConductivity, "Electrical conductivity", "µS⋅cm⁻¹", ConvElectricalConductivity),
		},
	},
	{
		WordCount: 1,
		Values: []ValueSpec{
			measured(KeyBatteryVoltage, "Battery voltage", "V", ConvBatteryVoltage),
		},
	},
}

// Catalog 返回传感器目录的副本
func Catalog() []SensorBlock {
	out := make([]SensorBlock, len(catalog))
	for i, b := range catalog {
		out[i] = SensorBlock{WordCount: b.WordCount, Values: append([]ValueSpec(nil), b.Values...)}
	}
	return out
}
