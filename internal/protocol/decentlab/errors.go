package decentlab

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHexEncoding = errors.New("invalid hex encoding")
	ErrTruncatedHeader    = errors.New("truncated header")
	ErrVersionMismatch    = errors.New("protocol version mismatch")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrTruncatedPayload   = errors.New("truncated payload")
)

// VersionMismatchError 版本字节与支持的协议版本不一致
type VersionMismatchError struct {
	Found    uint8
	Expected uint8
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("protocol version %d doesn't match v%d", e.Found, e.Expected)
}

// Is 使 errors.Is(err, ErrVersionMismatch) 成立
func (e *VersionMismatchError) Is(target error) bool { return target == ErrVersionMismatch }
