package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/thingpark-broker/internal/decoder"
)

// DecoderHandler 解码器查询与在线解码
type DecoderHandler struct {
	registry *decoder.Registry
}

// NewDecoderHandler 创建解码器Handler
func NewDecoderHandler(registry *decoder.Registry) *DecoderHandler {
	return &DecoderHandler{registry: registry}
}

// List 已登记的解码器
// GET /api/v1/decoders
func (h *DecoderHandler) List(c *gin.Context) {
	items := make([]gin.H, 0)
	for _, name := range h.registry.Names() {
		d, _ := h.registry.Lookup(name)
		items = append(items, gin.H{"name": d.Name(), "description": d.Description()})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "decoders": items})
}

type decodeRequest struct {
	PayloadHex string `json:"payload_hex" binding:"required"`
}

// Decode 解码一条十六进制载荷，不落库不转发；Accept: application/cbor 时返回 CBOR
// POST /api/v1/decoders/:name/decode
func (h *DecoderHandler) Decode(c *gin.Context) {
	name := c.Param("name")
	d, ok := h.registry.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "decoder not found", "decoder": name})
		return
	}
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload_hex is required"})
		return
	}
	out, err := d.DecodePayload(req.PayloadHex)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "decoder": name})
		return
	}
	render(c, http.StatusOK, gin.H{"decoder": name, "result": out.Detail, "data": out.Fields})
}
