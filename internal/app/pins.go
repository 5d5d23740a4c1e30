package app

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/pinlink/internal/client"
	"github.com/taoyao-code/pinlink/internal/pinstore"
	"github.com/taoyao-code/pinlink/internal/protocol/blynk"
)

const storeTimeout = 2 * time.Second

// Link 协议客户端的发送能力
type Link interface {
	State() client.State
	Server() string
	SendPing() error
	WriteVirtualPin(pin int, values ...any) error
	WriteDigitalPin(pin int, value bool) error
	SetWidgetProperty(pin int, property string, value any) error
}

// PinBridge 连接客户端事件、引脚缓存、UDP 转发与控制接口。
// 作为 client.Handler 记录下行写入并应答读请求；
// 作为 relay.Sink 与 api.Controller 先记录再转发上行写入。
type PinBridge struct {
	store pinstore.Store
	log   *zap.Logger
	link  atomic.Pointer[Link]
}

func NewPinBridge(store pinstore.Store, log *zap.Logger) *PinBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &PinBridge{store: store, log: log}
}

// Attach 客户端依赖 Handler 构造，因此创建后再回填
func (b *PinBridge) Attach(l Link) { b.link.Store(&l) }

func (b *PinBridge) linked() (Link, bool) {
	p := b.link.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

func (b *PinBridge) OnAuthorized(ok bool) {
	if ok {
		b.log.Info("device authorized")
		return
	}
	b.log.Error("device authorization rejected, check client.token")
}

func (b *PinBridge) OnVirtualPinWrite(pin int, values []any) {
	b.log.Info("virtual pin write", zap.Int("pin", pin), zap.Any("values", values))
	b.record(pin, blynk.FormatValues(values))
}

// OnVirtualPinReadRequest 用缓存值应答；没有记录时不发送
func (b *PinBridge) OnVirtualPinReadRequest(pin int) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	values, ok, err := b.store.Get(ctx, pin)
	if err != nil {
		b.log.Warn("pin store get failed", zap.Int("pin", pin), zap.Error(err))
		return
	}
	if !ok {
		b.log.Debug("read request for unknown pin", zap.Int("pin", pin))
		return
	}
	l, linked := b.linked()
	if !linked {
		return
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	if err := l.WriteVirtualPin(pin, args...); err != nil {
		b.log.Debug("answer read request failed", zap.Int("pin", pin), zap.Error(err))
	}
}

func (b *PinBridge) OnDigitalPinWrite(pin int, value bool) {
	b.log.Info("digital pin write", zap.Int("pin", pin), zap.Bool("value", value))
}

func (b *PinBridge) record(pin int, tokens []string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := b.store.Set(ctx, pin, tokens); err != nil {
		b.log.Warn("pin store set failed", zap.Int("pin", pin), zap.Error(err))
	}
}

// WriteVirtualPin 记录后转发，未连接时仍保留最新值
func (b *PinBridge) WriteVirtualPin(pin int, values ...any) error {
	if pin < 0 {
		return client.ErrInvalidPin
	}
	b.record(pin, blynk.FormatValues(values))
	l, ok := b.linked()
	if !ok {
		return client.ErrNotConnected
	}
	return l.WriteVirtualPin(pin, values...)
}

func (b *PinBridge) WriteDigitalPin(pin int, value bool) error {
	l, ok := b.linked()
	if !ok {
		return client.ErrNotConnected
	}
	return l.WriteDigitalPin(pin, value)
}

func (b *PinBridge) SetWidgetProperty(pin int, property string, value any) error {
	l, ok := b.linked()
	if !ok {
		return client.ErrNotConnected
	}
	return l.SetWidgetProperty(pin, property, value)
}

func (b *PinBridge) SendPing() error {
	l, ok := b.linked()
	if !ok {
		return client.ErrNotConnected
	}
	return l.SendPing()
}

func (b *PinBridge) State() client.State {
	l, ok := b.linked()
	if !ok {
		return client.StateDisconnected
	}
	return l.State()
}

func (b *PinBridge) Server() string {
	l, ok := b.linked()
	if !ok {
		return ""
	}
	return l.Server()
}

var _ client.Handler = (*PinBridge)(nil)
