package app

import (
	"github.com/taoyao-code/pinlink/internal/health"
)

// NewHealthAggregator 初始只检查协议连接
func NewHealthAggregator(c health.ClientState) *health.Aggregator {
	return health.NewAggregator(health.NewClientChecker(c))
}

// AddRelayChecker 转发服务启动后加入检查
func AddRelayChecker(aggregator *health.Aggregator, r health.RelayStats) {
	aggregator.AddChecker(health.NewRelayChecker(r))
}
