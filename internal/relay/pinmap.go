package relay

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PinMap 引脚别名表：alias -> 虚拟引脚号
type PinMap struct {
	Pins map[string]int `yaml:"pins"`
}

// LoadPinMap 从 YAML 文件加载别名表
func LoadPinMap(path string) (*PinMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pin map: %w", err)
	}
	var m PinMap
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal pin map: %w", err)
	}
	if m.Pins == nil {
		m.Pins = make(map[string]int)
	}
	for alias, pin := range m.Pins {
		if pin < 0 {
			return nil, fmt.Errorf("pin map: alias %q has negative pin %d", alias, pin)
		}
	}
	return &m, nil
}

// Resolve 数字直接作为引脚号，否则按别名查表（不区分大小写）
func (m *PinMap) Resolve(key string) (int, bool) {
	if n, err := strconv.Atoi(key); err == nil {
		return n, n >= 0
	}
	if m == nil {
		return 0, false
	}
	if pin, ok := m.Pins[key]; ok {
		return pin, true
	}
	for alias, pin := range m.Pins {
		if strings.EqualFold(alias, key) {
			return pin, true
		}
	}
	return 0, false
}
