package models

import (
	"time"
)

// 注意：
// - 保持与 db/migrations 完全对齐
// - 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// Datalogger 映射 dataloggers 表
type Datalogger struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// LoRaWAN DevEUI（大写十六进制）
	DevID   string   `gorm:"column:devid;type:text;not null;uniqueIndex"`
	Name    string   `gorm:"column:name;type:text;not null;default:''"`
	Decoder string   `gorm:"column:decoder;type:text;not null;default:''"`
	Lat     *float64 `gorm:"column:lat"`
	Lon     *float64 `gorm:"column:lon"`
	// 地址
	Country  string `gorm:"column:country;type:text;not null;default:''"`
	Locality string `gorm:"column:locality;type:text;not null;default:''"`
	Street   string `gorm:"column:street;type:text;not null;default:''"`
	// 转发目标
	Forwards  []DataloggerForward `gorm:"foreignKey:DataloggerID"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Datalogger) TableName() string { return "dataloggers" }

// DataloggerForward 映射 datalogger_forwards 表
type DataloggerForward struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DataloggerID int64     `gorm:"column:datalogger_id;not null;index"`
	URL          string    `gorm:"column:url;type:text;not null"`
	Enabled      bool      `gorm:"column:enabled;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DataloggerForward) TableName() string { return "datalogger_forwards" }
