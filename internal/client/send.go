package client

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/pinlink/internal/protocol/blynk"
)

// 组件属性名
const (
	PropColor     = "color"
	PropLabel     = "label"
	PropMax       = "max"
	PropMin       = "min"
	PropOnLabel   = "onLabel"
	PropOffLabel  = "offLabel"
	PropIsEnabled = "isEnabled"
	PropIsOnPlay  = "isOnPlay"
)

// WidgetProperty 一个组件属性键值
type WidgetProperty struct {
	Name  string
	Value any
}

// SendPing 发送心跳
func (c *Client) SendPing() error {
	return c.send(blynk.CmdPing)
}

// WriteVirtualPin 写虚拟引脚，values 按顺序编码为多个值
func (c *Client) WriteVirtualPin(pin int, values ...any) error {
	if pin < 0 {
		return ErrInvalidPin
	}
	parts := append([]string{blynk.PinVirtualWrite, strconv.Itoa(pin)}, blynk.FormatValues(values)...)
	return c.send(blynk.CmdHardware, parts...)
}

// WriteDigitalPin 写数字引脚，true/false 编码为 1/0
func (c *Client) WriteDigitalPin(pin int, value bool) error {
	if pin < 0 {
		return ErrInvalidPin
	}
	return c.send(blynk.CmdHardware, blynk.PinDigitalWrite, strconv.Itoa(pin), blynk.FormatValue(value))
}

// ReadVirtualPin 请求服务端回推虚拟引脚的当前值
func (c *Client) ReadVirtualPin(pin int) error {
	if pin < 0 {
		return ErrInvalidPin
	}
	return c.send(blynk.CmdHardwareSync, blynk.PinVirtualRead, strconv.Itoa(pin))
}

// SetWidgetProperty 设置组件属性
func (c *Client) SetWidgetProperty(pin int, property string, value any) error {
	return c.SetWidgetProperties(pin, WidgetProperty{Name: property, Value: value})
}

// SetWidgetProperties 每个属性一帧，各自分配消息ID，在同一次写入中发出
func (c *Client) SetWidgetProperties(pin int, props ...WidgetProperty) error {
	if pin < 0 {
		return ErrInvalidPin
	}
	if len(props) == 0 {
		return nil
	}
	p := strconv.Itoa(pin)
	return c.sendBatch(blynk.CmdSetWidgetProperty, len(props), func(i int) []string {
		return []string{p, props[i].Name, blynk.FormatValue(props[i].Value)}
	})
}

// BridgeVirtualWrite 经桥接槽位写对端设备的虚拟引脚
func (c *Client) BridgeVirtualWrite(slot, pin int, values ...any) error {
	if pin < 0 || slot < 0 {
		return ErrInvalidPin
	}
	parts := append([]string{strconv.Itoa(slot), blynk.PinVirtualWrite, strconv.Itoa(pin)}, blynk.FormatValues(values)...)
	return c.send(blynk.CmdBridge, parts...)
}

// BridgeDigitalWrite 经桥接槽位写对端设备的数字引脚
func (c *Client) BridgeDigitalWrite(slot, pin int, value bool) error {
	if pin < 0 || slot < 0 {
		return ErrInvalidPin
	}
	return c.send(blynk.CmdBridge, strconv.Itoa(slot), blynk.PinDigitalWrite, strconv.Itoa(pin), blynk.FormatValue(value))
}

// BridgeSetAuthToken 绑定桥接槽位与目标设备 token
func (c *Client) BridgeSetAuthToken(slot int, token string) error {
	if slot < 0 {
		return ErrInvalidPin
	}
	return c.send(blynk.CmdBridge, strconv.Itoa(slot), blynk.BridgeAuthToken, token)
}

func (c *Client) send(cmd blynk.Command, parts ...string) error {
	return c.sendBatch(cmd, 1, func(int) []string { return parts })
}

// sendBatch 在写锁内分配 n 个消息ID、组帧并一次写出
func (c *Client) sendBatch(cmd blynk.Command, n int, partsAt func(i int) []string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	s := c.sess
	connected := c.State() == StateConnected
	c.mu.Unlock()
	if s == nil || !connected {
		return ErrNotConnected
	}

	var buf []byte
	for i := 0; i < n; i++ {
		var err error
		buf, err = blynk.AppendFrame(buf, cmd, s.ids.Next(), partsAt(i)...)
		if err != nil {
			return err
		}
	}
	return c.writeLocked(s, cmd, n, buf)
}

// sendAck 确认收到的 HARDWARE/BRIDGE 帧；会话已被替换时丢弃
func (c *Client) sendAck(s *session, msgID uint16) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	current := c.sess == s
	c.mu.Unlock()
	if !current {
		return
	}
	if err := c.writeLocked(s, blynk.CmdResponse, 1, blynk.EncodeResponse(msgID, blynk.StatusOK)); err != nil {
		s.log.Debug("ack failed", zap.Uint16("msg_id", msgID), zap.Error(err))
	}
}

// writeLocked 调用方须持有 writeMu；写失败立即断开会话
func (c *Client) writeLocked(s *session, cmd blynk.Command, frames int, b []byte) error {
	if c.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	n, err := s.conn.Write(b)
	if c.m != nil && n > 0 {
		c.m.BytesSent.Add(float64(n))
	}
	if err != nil {
		c.dropSession(s, err)
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if c.m != nil {
		c.m.FramesSent.WithLabelValues(cmd.String()).Add(float64(frames))
	}
	return nil
}
