package client

// Handler 客户端事件回调。
// 所有回调都在连接的读循环 goroutine 中按报文到达顺序串行触发；
// 回调内可以调用 Write*/Set* 等发送方法，但不能调用 Connect/Disconnect。
type Handler interface {
	// OnAuthorized 每次连接尝试在登录应答后触发一次
	OnAuthorized(ok bool)
	OnVirtualPinWrite(pin int, values []any)
	OnVirtualPinReadRequest(pin int)
	OnDigitalPinWrite(pin int, value bool)
}

// NopHandler 空实现，可嵌入只关心部分事件的 Handler
type NopHandler struct{}

func (NopHandler) OnAuthorized(bool)            {}
func (NopHandler) OnVirtualPinWrite(int, []any) {}
func (NopHandler) OnVirtualPinReadRequest(int)  {}
func (NopHandler) OnDigitalPinWrite(int, bool)  {}

var _ Handler = NopHandler{}
