// Package decoder 载荷解码插件注册表：按名称登记解码器，供上行处理与 API 查找。
package decoder

import (
	"fmt"
	"sort"
	"sync"
)

// Output 一次解码的输出
type Output struct {
	// Detail 完整解码结果（具体类型由解码器决定）
	Detail any
	// Fields 转发使用的精简字段
	Fields map[string]any
}

// Decoder 载荷解码器插件
type Decoder interface {
	Name() string
	Description() string
	DecodePayload(hexPayload string) (Output, error)
}

// Registry 解码器注册表，可并发读取
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewRegistry 创建注册表并登记给定解码器；重名时 panic
func NewRegistry(decoders ...Decoder) *Registry {
	r := &Registry{decoders: make(map[string]Decoder)}
	for _, d := range decoders {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register 登记解码器
func (r *Registry) Register(d Decoder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decoders[d.Name()]; exists {
		return fmt.Errorf("decoder %q already registered", d.Name())
	}
	r.decoders[d.Name()] = d
	return nil
}

// Lookup 按名称查找解码器
func (r *Registry) Lookup(name string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[name]
	return d, ok
}

// Names 已登记的解码器名称（排序）
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.decoders))
	for n := range r.decoders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
