package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/thingpark-broker/internal/decoder"
	"github.com/taoyao-code/thingpark-broker/internal/health"
	redisstorage "github.com/taoyao-code/thingpark-broker/internal/storage/redis"
)

// NewHealthAggregator 按已启用的组件组装健康检查
func NewHealthAggregator(decoders *decoder.Registry, dbpool *pgxpool.Pool, redisClient *redisstorage.Client, dataloggers health.Counter) *health.Aggregator {
	agg := health.NewAggregator(health.NewDecoderChecker(decoders))
	if dbpool != nil {
		agg.AddChecker(health.NewDatabaseChecker(dbpool))
	}
	if redisClient != nil {
		agg.AddChecker(health.NewRedisChecker(redisClient))
	}
	if dataloggers != nil {
		agg.AddChecker(health.NewDataloggerChecker(dataloggers))
	}
	return agg
}
