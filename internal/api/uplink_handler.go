package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/datalogger"
	"github.com/taoyao-code/thingpark-broker/internal/ingest"
)

// UplinkService 上行处理
type UplinkService interface {
	Handle(ctx context.Context, up ingest.Uplink) (*ingest.Outcome, error)
}

// UplinkHandler ThingPark 上行回调处理器
type UplinkHandler struct {
	svc    UplinkService
	logger *zap.Logger
}

// NewUplinkHandler 创建上行Handler
func NewUplinkHandler(svc UplinkService, logger *zap.Logger) *UplinkHandler {
	return &UplinkHandler{svc: svc, logger: logger}
}

// thingparkUplink ThingPark DevEUI_uplink 消息（仅取用到的字段）
type thingparkUplink struct {
	Uplink struct {
		Time       string `json:"Time"`
		DevEUI     string `json:"DevEUI" binding:"required"`
		FPort      int    `json:"FPort"`
		FCntUp     int64  `json:"FCntUp"`
		PayloadHex string `json:"payload_hex" binding:"required"`
	} `json:"DevEUI_uplink" binding:"required"`
}

// Receive 接收一条上行并同步处理
// POST /api/v1/uplinks
func (h *UplinkHandler) Receive(c *gin.Context) {
	var req thingparkUplink
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uplink", "detail": err.Error()})
		return
	}

	up := ingest.Uplink{
		DevEUI:     strings.ToUpper(req.Uplink.DevEUI),
		FPort:      req.Uplink.FPort,
		FCnt:       req.Uplink.FCntUp,
		PayloadHex: req.Uplink.PayloadHex,
	}
	if req.Uplink.Time != "" {
		ts, err := time.Parse(time.RFC3339Nano, req.Uplink.Time)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid Time", "detail": err.Error()})
			return
		}
		up.Time = ts
	}

	out, err := h.svc.Handle(c.Request.Context(), up)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("handle uplink failed", zap.String("dev_eui", up.DevEUI), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	render(c, http.StatusOK, out)
}

// statusForError 错误到 HTTP 状态码的映射
func statusForError(err error) int {
	switch {
	case errors.Is(err, datalogger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrUnknownDecoder), errors.Is(err, ingest.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
