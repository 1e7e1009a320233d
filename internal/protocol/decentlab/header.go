package decentlab

import (
	"encoding/binary"
	"fmt"
)

// ProtocolVersion 唯一支持的协议版本
const ProtocolVersion uint8 = 2

// HeaderLen 头部固定长度：version[1] | devId[2] | flags[2]
const HeaderLen = 5

// Header 载荷头部
type Header struct {
	Version  uint8
	DeviceID uint16
	Flags    uint16 // 传感器存在位图，bit i 对应目录第 i 项
}

// ParseHeader 解析并校验头部。版本不匹配时不再读取后续字节。
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", ErrTruncatedHeader, HeaderLen, len(b))
	}
	if b[0] != ProtocolVersion {
		return Header{}, &VersionMismatchError{Found: b[0], Expected: ProtocolVersion}
	}
	return Header{
		Version:  b[0],
		DeviceID: binary.BigEndian.Uint16(b[1:3]),
		Flags:    binary.BigEndian.Uint16(b[3:5]),
	}, nil
}
