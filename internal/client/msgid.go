package client

import "github.com/taoyao-code/pinlink/internal/protocol/blynk"

// msgIDs 单连接内共享的消息ID计数器。
// 登录固定占用 1，此后每次发送前递增；65535 之后回到 1，永不产生 0。
// 非并发安全，调用方在写锁内使用。
type msgIDs struct {
	last uint16
}

func newMsgIDs() msgIDs { return msgIDs{last: blynk.LoginMsgID} }

func (m *msgIDs) Next() uint16 {
	m.last++
	if m.last == 0 {
		m.last = 1
	}
	return m.last
}
