package gormrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taoyao-code/thingpark-broker/internal/datalogger"
	"github.com/taoyao-code/thingpark-broker/internal/forward"
	"github.com/taoyao-code/thingpark-broker/internal/storage/models"
)

// Open 基于已有 pgx 连接池打开 GORM，避免重复建池
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Repository 基于 GORM 的 datalogger.Store 实现
type Repository struct {
	db *gorm.DB
}

// New 返回一个使用给定 *gorm.DB 的 Repository
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get 按 DevEUI 查询设备及其启用的转发目标
func (r *Repository) Get(ctx context.Context, devID string) (*datalogger.Datalogger, error) {
	var rec models.Datalogger
	err := r.db.WithContext(ctx).
		Preload("Forwards", "enabled = ?", true).
		Where("devid = ?", strings.ToUpper(devID)).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, datalogger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&rec), nil
}

// Save 新建或更新设备（按 devid 幂等），转发目标整体替换
func (r *Repository) Save(ctx context.Context, d *datalogger.Datalogger) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := models.Datalogger{DevID: strings.ToUpper(d.DevID)}
		if err := tx.Where("devid = ?", rec.DevID).FirstOrCreate(&rec).Error; err != nil {
			return err
		}
		return save(tx, &rec, d)
	})
}

// CreateIfAbsent 仅在设备不存在时写入，已有记录（含其转发目标）保持不变。
// 返回是否新建。
func (r *Repository) CreateIfAbsent(ctx context.Context, d *datalogger.Datalogger) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.Datalogger
		err := tx.Where("devid = ?", strings.ToUpper(d.DevID)).First(&rec).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		rec = models.Datalogger{DevID: strings.ToUpper(d.DevID)}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		created = true
		return save(tx, &rec, d)
	})
	return created, err
}

func save(tx *gorm.DB, rec *models.Datalogger, d *datalogger.Datalogger) error {
	rec.Name, rec.Decoder = d.Name, d.Decoder
	rec.Lat, rec.Lon = d.Latitude, d.Longitude
	rec.Country, rec.Locality, rec.Street = d.Country, d.Locality, d.Street
	if err := tx.Omit("Forwards").Save(rec).Error; err != nil {
		return err
	}
	if err := tx.Where("datalogger_id = ?", rec.ID).Delete(&models.DataloggerForward{}).Error; err != nil {
		return err
	}
	for _, f := range d.Forwards {
		fw := models.DataloggerForward{DataloggerID: rec.ID, URL: f.URL, Enabled: true}
		if err := tx.Create(&fw).Error; err != nil {
			return err
		}
	}
	return nil
}

func toDomain(rec *models.Datalogger) *datalogger.Datalogger {
	d := &datalogger.Datalogger{
		DevID:     rec.DevID,
		Name:      rec.Name,
		Decoder:   rec.Decoder,
		Latitude:  rec.Lat,
		Longitude: rec.Lon,
		Country:   rec.Country,
		Locality:  rec.Locality,
		Street:    rec.Street,
	}
	for _, f := range rec.Forwards {
		d.Forwards = append(d.Forwards, forward.Config{URL: f.URL})
	}
	return d
}
