package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/thingpark-broker/internal/codec"
)

// render 按 Accept 头输出 JSON 或 CBOR
func render(c *gin.Context, status int, body any) {
	if !strings.Contains(c.GetHeader("Accept"), codec.ContentTypeCBOR) {
		c.JSON(status, body)
		return
	}
	b, err := codec.MarshalCBOR(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode cbor", "detail": err.Error()})
		return
	}
	c.Data(status, codec.ContentTypeCBOR, b)
}
