package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/pinlink/internal/relay"
)

// RelayStats 转发服务统计来源
type RelayStats interface {
	Stats() relay.RateLimiterStats
}

// RelayChecker UDP 转发限流情况检查
type RelayChecker struct {
	r RelayStats
}

func NewRelayChecker(r RelayStats) *RelayChecker { return &RelayChecker{r: r} }

func (c *RelayChecker) Name() string { return "relay" }

// Check 被限流丢弃的比例超过一半时为 Degraded
func (c *RelayChecker) Check(context.Context) CheckResult {
	start := time.Now()
	s := c.r.Stats()

	total := s.AllowedTotal + s.RejectedTotal
	ratio := 0.0
	if total > 0 {
		ratio = float64(s.RejectedTotal) / float64(total)
	}

	status, msg := StatusHealthy, "ok"
	if ratio > 0.5 {
		status, msg = StatusDegraded, "most datagrams rate limited"
	}
	return CheckResult{
		Status:  status,
		Message: msg,
		Details: map[string]any{
			"rate_per_second": s.RatePerSecond,
			"burst":           s.Burst,
			"allowed_total":   s.AllowedTotal,
			"rejected_total":  s.RejectedTotal,
			"rejected_ratio":  fmt.Sprintf("%.1f%%", ratio*100),
		},
		Latency: time.Since(start),
	}
}
