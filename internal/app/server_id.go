package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateInstanceID 生成进程实例ID，用于日志关联。
// 优先使用环境变量 PINLINK_INSTANCE_ID，否则为 {name}-{hostname}-{uuid前8位}
func GenerateInstanceID(name string) string {
	if id := os.Getenv("PINLINK_INSTANCE_ID"); id != "" {
		return id
	}
	if name == "" {
		name = "pinlink"
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%s-%s", name, hostname, uuid.New().String()[:8])
}
