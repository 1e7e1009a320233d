// Package codec CBOR 输出编码（Accept: application/cbor 与 decode --format cbor）。
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// ContentTypeCBOR CBOR 媒体类型
const ContentTypeCBOR = "application/cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// 确定性编码：map 键排序、整数取最短编码
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: cbor enc mode: " + err.Error())
	}
	decMode, err = cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic("codec: cbor dec mode: " + err.Error())
	}
}

// MarshalCBOR 以 v 的 JSON 视图编码为 CBOR，字段名与 JSON 输出一致。
// 整数保持整数（value/data 下的数值除外，始终为浮点），null 保持 null。
func MarshalCBOR(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return encMode.Marshal(normalize(doc, false))
}

// UnmarshalCBOR 解码 CBOR，any 目标中的 map 使用 map[string]any
func UnmarshalCBOR(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// floatKeys 这些键下的数值始终按浮点编码：测量值与投影字段是 double，
// JSON 视图中整值浮点（如 3.000 V）会丢失类型
var floatKeys = map[string]bool{"value": true, "data": true}

func normalize(v any, asFloat bool) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e, asFloat || floatKeys[k])
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e, asFloat)
		}
		return t
	case json.Number:
		if !asFloat {
			if i, err := t.Int64(); err == nil {
				return i
			}
		}
		f, err := t.Float64()
		if err != nil {
			panic(fmt.Sprintf("codec: invalid json number %q", t))
		}
		return f
	default:
		return v
	}
}
