package decentlab

import (
	"encoding/hex"
	"fmt"
)

// FromHex 将十六进制文本解码为字节序列（长度必须为偶数，仅允许十六进制字符）
func FromHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHexEncoding, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHexEncoding, err)
	}
	return b, nil
}
