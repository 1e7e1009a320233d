package decoder

import "github.com/taoyao-code/thingpark-broker/internal/protocol/decentlab"

// DecentlabName Decentlab DL-TRS12 解码器名称
const DecentlabName = "decentlab"

type decentlabDecoder struct{}

// NewDecentlab 返回 DL-TRS12 土壤探头解码器
func NewDecentlab() Decoder { return decentlabDecoder{} }

func (decentlabDecoder) Name() string { return DecentlabName }

func (decentlabDecoder) Description() string {
	return "Decode Decentlab DL-TRS12 soil probe payload"
}

func (decentlabDecoder) DecodePayload(hexPayload string) (Output, error) {
	res, err := decentlab.DecodeHex(hexPayload)
	if err != nil {
		return Output{}, err
	}
	proj := res.Projection()
	fields := make(map[string]any, len(proj))
	for k, v := range proj {
		fields[k] = v
	}
	return Output{Detail: res, Fields: fields}, nil
}
