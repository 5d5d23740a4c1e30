package client

import "errors"

// State 连接状态，仅由 Client 内部切换
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// ConnectResult Connect 的结果分类
type ConnectResult int

const (
	ConnectOK ConnectResult = iota
	ConnectTimedOut
	ConnectTransportError
)

func (r ConnectResult) String() string {
	switch r {
	case ConnectOK:
		return "ok"
	case ConnectTimedOut:
		return "timeout"
	case ConnectTransportError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	ErrNotConnected           = errors.New("not connected")
	ErrTransportUnavailable   = errors.New("transport unavailable")
	ErrConnectTimeout         = errors.New("connect timeout")
	ErrAuthenticationRejected = errors.New("authentication rejected")
	ErrWriteFailure           = errors.New("write failure")
	ErrInvalidPin             = errors.New("invalid pin")
)
