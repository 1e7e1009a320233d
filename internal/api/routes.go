package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/api/middleware"
)

// Handlers 路由依赖
type Handlers struct {
	Uplinks     *UplinkHandler
	Decoders    *DecoderHandler
	Dataloggers *DataloggerHandler
}

// RegisterRoutes 注册 /api/v1 路由，统一挂载认证与限流。
// 先认证后限流，未携带有效密钥的请求不消耗令牌。
func RegisterRoutes(r *gin.Engine, h Handlers, auth middleware.AuthConfig, limiter *middleware.RateLimiter, logger *zap.Logger) {
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequestID(), middleware.APIKeyAuth(auth, logger), middleware.RateLimit(limiter))

	v1.POST("/uplinks", h.Uplinks.Receive)

	v1.GET("/decoders", h.Decoders.List)
	v1.POST("/decoders/:name/decode", h.Decoders.Decode)

	v1.GET("/dataloggers/:devid", h.Dataloggers.Get)
	v1.PUT("/dataloggers/:devid", h.Dataloggers.Put)
	v1.GET("/dataloggers/:devid/uplinks", h.Dataloggers.Uplinks)
}
