// Package datalogger 设备元数据（位置、地址、解码器、转发目标）查询。
package datalogger

import (
	"context"
	"errors"

	"github.com/taoyao-code/thingpark-broker/internal/forward"
)

var ErrNotFound = errors.New("datalogger not found")

// Datalogger 已登记的设备
type Datalogger struct {
	DevID     string           `json:"devid" yaml:"devid"`
	Name      string           `json:"name" yaml:"name"`
	Decoder   string           `json:"decoder" yaml:"decoder"`
	Latitude  *float64         `json:"lat" yaml:"lat"`
	Longitude *float64         `json:"lon" yaml:"lon"`
	Country   string           `json:"country" yaml:"country"`
	Locality  string           `json:"locality" yaml:"locality"`
	Street    string           `json:"street" yaml:"street"`
	Forwards  []forward.Config `json:"forwards" yaml:"forwards"`
}

// Meta 转发使用的元数据视图
func (d *Datalogger) Meta() forward.Meta {
	return forward.Meta{
		DevID:     d.DevID,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Country:   d.Country,
		Locality:  d.Locality,
		Street:    d.Street,
	}
}

// Store 按 DevEUI 查询设备；不存在时返回 ErrNotFound
type Store interface {
	Get(ctx context.Context, devID string) (*Datalogger, error)
}
