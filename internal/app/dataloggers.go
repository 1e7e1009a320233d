package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taoyao-code/thingpark-broker/internal/datalogger"
	"github.com/taoyao-code/thingpark-broker/internal/storage/gormrepo"
)

// Dataloggers 设备登记表的装配结果
type Dataloggers struct {
	Store datalogger.Store
	// Writer 仅数据库模式可写
	Writer *gormrepo.Repository
	// File 文件模式下的登记表（健康检查用）
	File *datalogger.FileStore
}

// NewDataloggers 选择设备登记表：
// 启用数据库时使用数据库，并导入 YAML 文件中数据库尚不存在的条目
// （已通过 API 修改的设备不被覆盖）；否则只读加载 YAML 文件。
func NewDataloggers(ctx context.Context, path string, gdb *gorm.DB, log *zap.Logger) (*Dataloggers, error) {
	file, err := loadFileIfExists(path)
	if err != nil {
		return nil, err
	}

	if gdb != nil {
		repo := gormrepo.New(gdb)
		if file != nil {
			created, err := seedMissing(ctx, repo, file.All())
			if err != nil {
				return nil, err
			}
			log.Info("dataloggers seeded from file", zap.String("file", path),
				zap.Int("count", file.Len()), zap.Int("created", created))
		}
		return &Dataloggers{Store: repo, Writer: repo}, nil
	}

	if file == nil {
		return nil, fmt.Errorf("no datalogger registry: file %q not found and database disabled", path)
	}
	log.Info("dataloggers loaded from file", zap.String("file", path), zap.Int("count", file.Len()))
	return &Dataloggers{Store: file, File: file}, nil
}

// seeder 按设备幂等写入，已存在的不覆盖
type seeder interface {
	CreateIfAbsent(ctx context.Context, d *datalogger.Datalogger) (bool, error)
}

func seedMissing(ctx context.Context, repo seeder, dls []*datalogger.Datalogger) (int, error) {
	created := 0
	for _, d := range dls {
		ok, err := repo.CreateIfAbsent(ctx, d)
		if err != nil {
			return created, fmt.Errorf("seed datalogger %s: %w", d.DevID, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func loadFileIfExists(path string) (*datalogger.FileStore, error) {
	if path == "" {
		return nil, nil
	}
	store, err := datalogger.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return store, err
}
