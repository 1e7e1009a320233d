package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/datalogger"
	pgstorage "github.com/taoyao-code/thingpark-broker/internal/storage/pg"
)

// DataloggerWriter 可写的设备登记表（数据库模式）
type DataloggerWriter interface {
	Save(ctx context.Context, d *datalogger.Datalogger) error
}

// UplinkQuery 上行记录查询
type UplinkQuery interface {
	LatestUplinks(ctx context.Context, devEUI string, limit int) ([]pgstorage.Uplink, error)
}

// DataloggerHandler 设备元数据API。writer/uplinks 为 nil 时对应接口返回 501。
type DataloggerHandler struct {
	store   datalogger.Store
	writer  DataloggerWriter
	uplinks UplinkQuery
	logger  *zap.Logger
}

// NewDataloggerHandler 创建设备Handler
func NewDataloggerHandler(store datalogger.Store, writer DataloggerWriter, uplinks UplinkQuery, logger *zap.Logger) *DataloggerHandler {
	return &DataloggerHandler{store: store, writer: writer, uplinks: uplinks, logger: logger}
}

// Get 查询设备
// GET /api/v1/dataloggers/:devid
func (h *DataloggerHandler) Get(c *gin.Context) {
	d, err := h.store.Get(c.Request.Context(), c.Param("devid"))
	if errors.Is(err, datalogger.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "datalogger not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to query datalogger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query datalogger", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// Put 新建或更新设备
// PUT /api/v1/dataloggers/:devid
func (h *DataloggerHandler) Put(c *gin.Context) {
	if h.writer == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "datalogger registry is read-only"})
		return
	}
	var d datalogger.Datalogger
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid datalogger", "detail": err.Error()})
		return
	}
	d.DevID = strings.ToUpper(c.Param("devid"))
	if err := h.writer.Save(c.Request.Context(), &d); err != nil {
		h.logger.Error("failed to save datalogger", zap.String("devid", d.DevID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save datalogger", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

type uplinkView struct {
	ID          string          `json:"id"`
	DevEUI      string          `json:"dev_eui"`
	FPort       int             `json:"fport"`
	FCnt        int64           `json:"fcnt"`
	PayloadHex  string          `json:"payload_hex"`
	Decoder     string          `json:"decoder"`
	Decoded     json.RawMessage `json:"decoded,omitempty"`
	DecodeError string          `json:"decode_error,omitempty"`
	ReceivedAt  time.Time       `json:"received_at"`
}

// Uplinks 设备最近上行
// GET /api/v1/dataloggers/:devid/uplinks?limit=20
func (h *DataloggerHandler) Uplinks(c *gin.Context) {
	if h.uplinks == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "uplink storage is disabled"})
		return
	}
	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	devEUI := strings.ToUpper(c.Param("devid"))
	list, err := h.uplinks.LatestUplinks(c.Request.Context(), devEUI, limit)
	if err != nil {
		h.logger.Error("failed to query uplinks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query uplinks", "detail": err.Error()})
		return
	}
	views := make([]uplinkView, 0, len(list))
	for _, u := range list {
		views = append(views, uplinkView{
			ID:          u.ID.String(),
			DevEUI:      u.DevEUI,
			FPort:       u.FPort,
			FCnt:        u.FCnt,
			PayloadHex:  u.PayloadHex,
			Decoder:     u.Decoder,
			Decoded:     json.RawMessage(u.Decoded),
			DecodeError: u.DecodeError,
			ReceivedAt:  u.ReceivedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"dev_eui": devEUI, "count": len(views), "uplinks": views})
}
