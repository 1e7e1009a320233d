// Package decentlab 解码 Decentlab DL-TRS12 土壤探头上行载荷。
//
// 布局：version[1] | devId[2] BE | flags[2] BE | words[n] BE
// flags 的 bit i 决定目录第 i 个传感器块是否出现在 words 中。
package decentlab

// Decode 解码原始字节载荷；任一步失败只返回错误，不返回部分结果
func Decode(raw []byte) (*Result, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	ws, err := newWordStream(raw[HeaderLen:])
	if err != nil {
		return nil, err
	}
	ms, err := decodeBlocks(catalog, h.Flags, ws)
	if err != nil {
		return nil, err
	}
	return &Result{DeviceID: h.DeviceID, ProtocolVersion: h.Version, Measurements: ms}, nil
}

// DecodeHex 解码十六进制文本载荷
func DecodeHex(s string) (*Result, error) {
	raw, err := FromHex(s)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// decodeBlocks 按目录顺序遍历，消费被位图激活的传感器块。
// 超出目录长度的位被忽略。
func decodeBlocks(cat []SensorBlock, flags uint16, ws *wordStream) ([]Measurement, error) {
	var out []Measurement
	for i, blk := range cat {
		if i >= 16 || (flags>>uint(i))&1 != 1 {
			continue
		}
		w, err := ws.take(blk.WordCount)
		if err != nil {
			return nil, err
		}
		for _, v := range blk.Values {
			if v.Kind != Measured {
				continue
			}
			m := Measurement{Key: v.Key, Name: v.Name, Value: v.Conversion.apply(w)}
			if v.Unit != "" {
				unit := v.Unit
				m.Unit = &unit
			}
			out = append(out, m)
		}
	}
	return out, nil
}
