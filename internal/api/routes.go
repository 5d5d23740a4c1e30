package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/pinlink/internal/api/middleware"
)

// RegisterPinRoutes 注册 /api/v1 控制接口
func RegisterPinRoutes(r gin.IRouter, ctl Controller, authCfg middleware.AuthConfig, logger *zap.Logger) {
	if r == nil || ctl == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := NewPinHandler(ctl, logger)

	v1 := r.Group("/api/v1")
	if authCfg.Enabled {
		v1.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled")
	}

	v1.GET("/status", h.Status)
	v1.POST("/ping", h.Ping)
	v1.POST("/pins/virtual/:pin", h.WriteVirtual)
	v1.POST("/pins/digital/:pin", h.WriteDigital)
	v1.POST("/widgets/:pin/property", h.SetProperty)
}
