package blynk

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownPinType = errors.New("unknown pin type")
	ErrBadBody        = errors.New("bad body")
)

// 引脚操作类型（HARDWARE/BRIDGE body 的第一个参数）
const (
	PinVirtualWrite = "vw"
	PinVirtualRead  = "vr"
	PinDigitalWrite = "dw"
	PinDigitalRead  = "dr"
	BridgeAuthToken = "i"
)

// Event 入站报文解析出的事件，具体类型见下方各结构
type Event interface {
	isEvent()
}

// VirtualWrite 对端写虚拟引脚
type VirtualWrite struct {
	Pin    int
	Values []any
	Bridge bool
}

// VirtualReadRequest 对端请求虚拟引脚当前值
type VirtualReadRequest struct {
	Pin    int
	Bridge bool
}

// DigitalWrite 对端写数字引脚
type DigitalWrite struct {
	Pin    int
	Value  bool
	Bridge bool
}

// Response 应答报文，交由连接管理器做 msgId 关联
type Response struct {
	MsgID  uint16
	Status Status
}

func (VirtualWrite) isEvent()       {}
func (VirtualReadRequest) isEvent() {}
func (DigitalWrite) isEvent()       {}
func (Response) isEvent()           {}

// DecodeFunc 将一帧解释为事件
type DecodeFunc func(*Frame) (Event, error)

// Dispatcher 命令分发表：按命令字选择解释函数，本身不持有连接状态
type Dispatcher struct {
	mu sync.RWMutex
	m  map[Command]DecodeFunc
}

// NewDispatcher 创建分发器并注册 RESPONSE/HARDWARE/BRIDGE
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{m: make(map[Command]DecodeFunc)}
	d.Register(CmdResponse, decodeResponse)
	d.Register(CmdHardware, decodeHardware)
	d.Register(CmdBridge, decodeHardware)
	return d
}

// Register 注册（或覆盖）命令的解释函数
func (d *Dispatcher) Register(cmd Command, fn DecodeFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[cmd] = fn
}

// Dispatch 解释一帧。未注册命令返回 ErrUnknownCommand，调用方记录后忽略即可。
func (d *Dispatcher) Dispatch(f *Frame) (Event, error) {
	d.mu.RLock()
	fn := d.m[f.Cmd]
	d.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, f.Cmd)
	}
	return fn(f)
}

// NeedsAck HARDWARE/BRIDGE 且携带非 0 msgId 的报文需回 RESPONSE/OK
func NeedsAck(f *Frame) bool {
	return (f.Cmd == CmdHardware || f.Cmd == CmdBridge) && f.MsgID != 0
}

func decodeResponse(f *Frame) (Event, error) {
	return Response{MsgID: f.MsgID, Status: f.Status}, nil
}

func decodeHardware(f *Frame) (Event, error) {
	tokens := f.Tokens()
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: %d tokens", ErrBadBody, len(tokens))
	}
	bridge := f.Cmd == CmdBridge

	switch tokens[0] {
	case PinVirtualWrite:
		pin, err := parsePin(tokens[1])
		if err != nil {
			return nil, err
		}
		return VirtualWrite{Pin: pin, Values: ParseValues(tokens[2:]), Bridge: bridge}, nil
	case PinVirtualRead:
		pin, err := parsePin(tokens[1])
		if err != nil {
			return nil, err
		}
		return VirtualReadRequest{Pin: pin, Bridge: bridge}, nil
	case PinDigitalWrite:
		pin, err := parsePin(tokens[1])
		if err != nil {
			return nil, err
		}
		if len(tokens) < 3 {
			return nil, fmt.Errorf("%w: digital write without value", ErrBadBody)
		}
		return DigitalWrite{Pin: pin, Value: tokens[2] == "1", Bridge: bridge}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPinType, tokens[0])
	}
}

func parsePin(tok string) (int, error) {
	pin, err := strconv.Atoi(tok)
	if err != nil || pin < 0 {
		return 0, fmt.Errorf("%w: pin %q", ErrBadBody, tok)
	}
	return pin, nil
}
