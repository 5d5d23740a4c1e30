package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/metrics"
	"github.com/taoyao-code/pinlink/internal/relay"
)

// NewRelay 创建 UDP 转发服务；别名表加载失败时仅支持数字引脚
func NewRelay(cfg cfgpkg.RelayConfig, sink relay.Sink, log *zap.Logger, m *metrics.AppMetrics) *relay.Server {
	var pins *relay.PinMap
	if cfg.PinMapPath != "" {
		pm, err := relay.LoadPinMap(cfg.PinMapPath)
		if err != nil {
			log.Warn("load pin map failed", zap.String("path", cfg.PinMapPath), zap.Error(err))
		} else {
			pins = pm
			log.Info("pin map loaded", zap.String("path", cfg.PinMapPath), zap.Int("aliases", len(pm.Pins)))
		}
	}
	return relay.New(cfg, sink, pins, log, m)
}
