package decentlab

import (
	"encoding/binary"
	"fmt"
)

// wordStream 头部之后的大端 16 位字序列，游标只前进不回退
type wordStream struct {
	words []uint16
	cur   int
}

func newWordStream(body []byte) (*wordStream, error) {
	if len(body)%2 != 0 {
		return nil, fmt.Errorf("%w: odd body length %d", ErrMalformedPayload, len(body))
	}
	words := make([]uint16, len(body)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(body[2*i : 2*i+2])
	}
	return &wordStream{words: words}, nil
}

// remaining 剩余未消费的字数
func (s *wordStream) remaining() int { return len(s.words) - s.cur }

// take 消费 n 个字；不足时返回 ErrTruncatedPayload 且游标不动
func (s *wordStream) take(n int) ([]uint16, error) {
	if n > s.remaining() {
		return nil, fmt.Errorf("%w: need %d words at offset %d, have %d", ErrTruncatedPayload, n, s.cur, s.remaining())
	}
	w := s.words[s.cur : s.cur+n]
	s.cur += n
	return w, nil
}
