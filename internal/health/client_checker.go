package health

import (
	"context"
	"time"

	"github.com/taoyao-code/pinlink/internal/client"
)

// ClientState 协议客户端的只读视图
type ClientState interface {
	State() client.State
	Server() string
}

// ClientChecker 协议连接状态检查
type ClientChecker struct {
	c ClientState
}

func NewClientChecker(c ClientState) *ClientChecker { return &ClientChecker{c: c} }

func (c *ClientChecker) Name() string { return "client" }

// Check 已鉴权为 Healthy，连接/鉴权中为 Degraded，断开为 Unhealthy
func (c *ClientChecker) Check(context.Context) CheckResult {
	start := time.Now()
	st := c.c.State()

	status := StatusUnhealthy
	switch st {
	case client.StateConnected:
		status = StatusHealthy
	case client.StateConnecting, client.StateAuthenticating:
		status = StatusDegraded
	}
	return CheckResult{
		Status:  status,
		Message: st.String(),
		Details: map[string]any{"server": c.c.Server()},
		Latency: time.Since(start),
	}
}
