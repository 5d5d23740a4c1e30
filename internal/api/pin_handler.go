package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/pinlink/internal/client"
)

// Controller 控制接口依赖的客户端能力
type Controller interface {
	State() client.State
	Server() string
	SendPing() error
	WriteVirtualPin(pin int, values ...any) error
	WriteDigitalPin(pin int, value bool) error
	SetWidgetProperty(pin int, property string, value any) error
}

// PinHandler 引脚控制接口
type PinHandler struct {
	ctl    Controller
	logger *zap.Logger
}

func NewPinHandler(ctl Controller, logger *zap.Logger) *PinHandler {
	return &PinHandler{ctl: ctl, logger: logger}
}

type virtualWriteRequest struct {
	Values []any `json:"values" binding:"required,min=1"`
}

type digitalWriteRequest struct {
	Value *bool `json:"value" binding:"required"`
}

type widgetPropertyRequest struct {
	Property string `json:"property" binding:"required"`
	Value    any    `json:"value"`
}

// Status 连接状态
func (h *PinHandler) Status(c *gin.Context) {
	st := h.ctl.State()
	c.JSON(http.StatusOK, gin.H{
		"server":    h.ctl.Server(),
		"state":     st.String(),
		"connected": st == client.StateConnected,
	})
}

// Ping 立即发送一次心跳
func (h *PinHandler) Ping(c *gin.Context) {
	h.reply(c, h.ctl.SendPing())
}

// WriteVirtual POST /pins/virtual/:pin {"values":[...]}
func (h *PinHandler) WriteVirtual(c *gin.Context) {
	pin, ok := pinParam(c)
	if !ok {
		return
	}
	var req virtualWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.reply(c, h.ctl.WriteVirtualPin(pin, req.Values...))
}

// WriteDigital POST /pins/digital/:pin {"value":true}
func (h *PinHandler) WriteDigital(c *gin.Context) {
	pin, ok := pinParam(c)
	if !ok {
		return
	}
	var req digitalWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.reply(c, h.ctl.WriteDigitalPin(pin, *req.Value))
}

// SetProperty POST /widgets/:pin/property {"property":"label","value":"x"}
func (h *PinHandler) SetProperty(c *gin.Context) {
	pin, ok := pinParam(c)
	if !ok {
		return
	}
	var req widgetPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}
	h.reply(c, h.ctl.SetWidgetProperty(pin, req.Property, req.Value))
}

func pinParam(c *gin.Context) (int, bool) {
	pin, err := strconv.Atoi(c.Param("pin"))
	if err != nil || pin < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pin"})
		return 0, false
	}
	return pin, true
}

// reply 未连接 409，写失败 502
func (h *PinHandler) reply(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, client.ErrNotConnected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, client.ErrInvalidPin):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, client.ErrWriteFailure):
		h.logger.Warn("api write failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("api request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
