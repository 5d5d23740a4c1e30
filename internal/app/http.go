package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/pinlink/internal/api"
	"github.com/taoyao-code/pinlink/internal/api/middleware"
	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/health"
	"github.com/taoyao-code/pinlink/internal/httpserver"
)

// NewHTTPServer 组装 HTTP 服务：探针、指标、健康报告与控制接口
func NewHTTPServer(cfg *cfgpkg.Config, metricsHandler http.Handler, readyFn func() bool, agg *health.Aggregator, ctl api.Controller, log *zap.Logger) *httpserver.Server {
	if !cfg.Metrics.Enable {
		metricsHandler = nil
	}
	authCfg := middleware.AuthConfig{
		APIKeys: cfg.API.Auth.APIKeys,
		Enabled: cfg.API.Auth.Enabled,
	}
	return httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn, log,
		func(r gin.IRouter) { health.RegisterHTTPRoutes(r, agg) },
		func(r gin.IRouter) { api.RegisterPinRoutes(r, ctl, authCfg, log) },
	)
}
