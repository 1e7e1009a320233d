package app

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taoyao-code/thingpark-broker/db"
	cfgpkg "github.com/taoyao-code/thingpark-broker/internal/config"
	"github.com/taoyao-code/thingpark-broker/internal/migrate"
	"github.com/taoyao-code/thingpark-broker/internal/storage/gormrepo"
	pgstorage "github.com/taoyao-code/thingpark-broker/internal/storage/pg"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行迁移。
// migrationsDir 存在时使用磁盘上的迁移文件，否则使用编译进二进制的版本。
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, err
	}
	if !cfg.AutoMigrate {
		return pool, nil
	}

	runner := migrate.Runner{FS: db.Migrations}
	if st, statErr := os.Stat(cfg.MigrationsDir); cfg.MigrationsDir != "" && statErr == nil && st.IsDir() {
		runner = migrate.Runner{Dir: cfg.MigrationsDir}
	}
	if err := runner.Up(ctx, pool); err != nil {
		log.Error("db migrate error", zap.Error(err))
		pool.Close()
		return nil, err
	}
	log.Info("db migrations applied", zap.String("dir", runner.Dir))
	return pool, nil
}

// OpenGorm 在同一连接池上打开 gorm（设备登记表）
func OpenGorm(pool *pgxpool.Pool, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gormrepo.Open(pool)
	if err != nil {
		log.Error("gorm open error", zap.Error(err))
		return nil, err
	}
	return gdb, nil
}
