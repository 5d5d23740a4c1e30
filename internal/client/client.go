package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/metrics"
	"github.com/taoyao-code/pinlink/internal/protocol/blynk"
)

const (
	defaultConnectTimeout = time.Second
	defaultPingInterval   = 5 * time.Second
	defaultReadBufferSize = 1024
)

// Dialer 建立传输连接，*net.Dialer 即满足
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option 客户端可选项
type Option func(*Client)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.AppMetrics) Option { return func(c *Client) { c.m = m } }

// WithDialer 替换默认拨号器
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// Client 协议客户端：负责拨号、登录、读循环、心跳与自动重连
type Client struct {
	cfg     cfgpkg.ClientConfig
	handler Handler
	log     *zap.Logger
	m       *metrics.AppMetrics
	dialer  Dialer
	disp    *blynk.Dispatcher

	newTicker func(time.Duration) (<-chan time.Time, func())

	// lifeMu 串行化 Connect/Disconnect/重连，可跨阻塞操作持有
	lifeMu sync.Mutex
	// mu 保护 sess 与状态切换，不跨阻塞操作持有
	mu    sync.Mutex
	sess  *session
	state atomic.Int32
	loops sync.WaitGroup

	// writeMu 保证“分配ID-组帧-写出”整体互斥，多帧字节不会交错
	writeMu sync.Mutex

	kaMu     sync.Mutex
	kaCancel context.CancelFunc
	kaDone   chan struct{}
}

// New 创建客户端；h 为 nil 时事件被丢弃
func New(cfg cfgpkg.ClientConfig, h Handler, opts ...Option) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = defaultReadBufferSize
	}
	if h == nil {
		h = NopHandler{}
	}
	c := &Client{
		cfg:       cfg,
		handler:   h,
		log:       zap.NewNop(),
		dialer:    &net.Dialer{},
		disp:      blynk.NewDispatcher(),
		newTicker: defaultTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("server", cfg.Server))
	return c
}

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// State 当前连接状态
func (c *Client) State() State { return State(c.state.Load()) }

// Connected 是否已完成鉴权
func (c *Client) Connected() bool { return c.State() == StateConnected }

// Server 服务端地址
func (c *Client) Server() string { return c.cfg.Server }

// Connect 拨号（受 ConnectTimeout 限制）并发送登录报文，随后启动读循环。
// 无论成功与否都会启动心跳定时器：断线时每个周期触发一次重连。
// 定时器在发出登录报文之前启动，鉴权失败时由读循环停止。
// 已处于非断开状态时直接返回 ConnectOK。
func (c *Client) Connect(ctx context.Context) (ConnectResult, error) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	c.startKeepalive()
	return c.connectLocked(ctx)
}

// Disconnect 停止心跳、关闭连接并等待读循环退出；重复调用无副作用
func (c *Client) Disconnect() {
	c.stopKeepalive(true)

	c.lifeMu.Lock()
	// 并发的 Connect 可能在上面停止之后又启动了定时器
	done := c.detachKeepalive()
	if c.teardownLocked() {
		c.log.Info("disconnected")
	}
	c.lifeMu.Unlock()

	if done != nil {
		<-done
	}
	c.loops.Wait()
}

func (c *Client) connectLocked(ctx context.Context) (ConnectResult, error) {
	if c.State() != StateDisconnected {
		return ConnectOK, nil
	}
	c.setState(StateConnecting)

	dctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	conn, err := c.dial(dctx)
	cancel()
	if err != nil {
		c.setState(StateDisconnected)
		if isTimeout(err) {
			c.countConnect(ConnectTimedOut)
			c.log.Warn("connect timeout", zap.Duration("timeout", c.cfg.ConnectTimeout))
			return ConnectTimedOut, fmt.Errorf("%w: %w: %s", ErrTransportUnavailable, ErrConnectTimeout, c.cfg.Server)
		}
		c.countConnect(ConnectTransportError)
		c.log.Warn("connect failed", zap.Error(err))
		return ConnectTransportError, fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	}

	s := newSession(conn, c.cfg.MaxBodyLen, c.log)
	c.mu.Lock()
	c.sess = s
	c.setStateLocked(StateAuthenticating)
	c.mu.Unlock()

	c.loops.Add(1)
	go c.readLoop(s)

	login, err := blynk.Encode(blynk.CmdLogin, blynk.LoginMsgID, c.cfg.Token)
	if err == nil {
		c.writeMu.Lock()
		err = c.writeLocked(s, blynk.CmdLogin, 1, login)
		c.writeMu.Unlock()
	}
	if err != nil {
		c.dropSession(s, err)
		c.countConnect(ConnectTransportError)
		return ConnectTransportError, fmt.Errorf("%w: login: %w", ErrTransportUnavailable, err)
	}

	c.countConnect(ConnectOK)
	s.log.Info("connected, login sent")
	return ConnectOK, nil
}

// dial 拨号与超时赛跑：先完成者决定结果，超时后迟到的连接直接关闭
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := c.dialer.DialContext(ctx, "tcp", c.cfg.Server)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// teardownLocked 摘除当前会话并等待其读循环退出，返回是否存在会话
func (c *Client) teardownLocked() bool {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	if s == nil {
		return false
	}
	s.close()
	<-s.done
	return true
}

// dropSession 因读写失败或鉴权失败结束会话；只有仍是当前会话时才切换状态
func (c *Client) dropSession(s *session, cause error) {
	s.close()
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return
	}
	c.sess = nil
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if errors.Is(cause, io.EOF) {
		s.log.Warn("connection closed by peer")
	} else {
		s.log.Warn("connection lost", zap.Error(cause))
	}
}

func (c *Client) setState(st State) {
	c.mu.Lock()
	c.setStateLocked(st)
	c.mu.Unlock()
}

func (c *Client) setStateLocked(st State) {
	c.state.Store(int32(st))
	if c.m != nil {
		c.m.ConnState.Set(float64(st))
	}
}

// readLoop 读取字节 -> 流式解码 -> 逐帧分发，直到连接关闭或出错
func (c *Client) readLoop(s *session) {
	defer c.loops.Done()
	defer close(s.done)

	buf := make([]byte, c.cfg.ReadBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			if c.m != nil {
				c.m.BytesReceived.Add(float64(n))
			}
			frames, ferr := s.decoder.Feed(buf[:n])
			for _, f := range frames {
				if !c.handleFrame(s, f) {
					return
				}
			}
			if ferr != nil {
				c.dropSession(s, ferr)
				return
			}
		}
		if err != nil {
			c.dropSession(s, err)
			return
		}
		if n == 0 {
			c.dropSession(s, io.EOF)
			return
		}
	}
}

// handleFrame 处理一帧；返回 false 表示会话已结束，读循环应退出
func (c *Client) handleFrame(s *session, f *blynk.Frame) bool {
	if c.m != nil {
		c.m.FramesReceived.WithLabelValues(f.Cmd.String()).Inc()
	}

	ev, err := c.disp.Dispatch(f)
	if blynk.NeedsAck(f) {
		c.sendAck(s, f.MsgID)
	}
	if err != nil {
		s.log.Debug("frame ignored", zap.Stringer("cmd", f.Cmd), zap.Uint16("msg_id", f.MsgID), zap.Error(err))
		if c.m != nil {
			c.m.DispatchIgnored.WithLabelValues(ignoreReason(err)).Inc()
		}
		return true
	}

	switch e := ev.(type) {
	case blynk.Response:
		return c.handleResponse(s, e)
	case blynk.VirtualWrite:
		c.handler.OnVirtualPinWrite(e.Pin, e.Values)
	case blynk.VirtualReadRequest:
		c.handler.OnVirtualPinReadRequest(e.Pin)
	case blynk.DigitalWrite:
		c.handler.OnDigitalPinWrite(e.Pin, e.Value)
	}
	return true
}

func ignoreReason(err error) string {
	switch {
	case errors.Is(err, blynk.ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, blynk.ErrUnknownPinType):
		return "unknown_pin_type"
	default:
		return "bad_body"
	}
}

// handleResponse 第一条 msgId=1 的应答决定本次连接的鉴权结果，其余应答仅记录
func (c *Client) handleResponse(s *session, r blynk.Response) bool {
	if r.MsgID != blynk.LoginMsgID || s.authResolved {
		s.log.Debug("response", zap.Uint16("msg_id", r.MsgID), zap.Stringer("status", r.Status))
		return true
	}
	s.authResolved = true

	if r.Status.Authorized() {
		c.mu.Lock()
		if c.sess == s {
			c.setStateLocked(StateConnected)
		}
		c.mu.Unlock()
		if c.m != nil {
			c.m.AuthTotal.WithLabelValues("ok").Inc()
		}
		s.log.Info("authorized", zap.Stringer("status", r.Status))
		c.handler.OnAuthorized(true)
		return true
	}

	if c.m != nil {
		c.m.AuthTotal.WithLabelValues("rejected").Inc()
	}
	// 鉴权失败不自动重试，由调用方决定是否重新 Connect
	c.stopKeepalive(false)
	c.dropSession(s, fmt.Errorf("%w: %s", ErrAuthenticationRejected, r.Status))
	c.handler.OnAuthorized(false)
	return false
}

func (c *Client) startKeepalive() {
	c.kaMu.Lock()
	defer c.kaMu.Unlock()
	if c.kaCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.kaCancel, c.kaDone = cancel, done

	ticks, stop := c.newTicker(c.cfg.PingInterval)
	go c.keepaliveLoop(ctx, ticks, stop, done)
}

// stopKeepalive 持有 lifeMu 时不能 wait：定时器可能正阻塞在重连的 lifeMu 上
func (c *Client) stopKeepalive(wait bool) {
	done := c.detachKeepalive()
	if wait && done != nil {
		<-done
	}
}

// detachKeepalive 取消当前定时器并返回其退出信号，未启动时返回 nil
func (c *Client) detachKeepalive() chan struct{} {
	c.kaMu.Lock()
	cancel, done := c.kaCancel, c.kaDone
	c.kaCancel, c.kaDone = nil, nil
	c.kaMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	return done
}

// keepaliveLoop 已连接时发送 PING，否则触发一次重连
func (c *Client) keepaliveLoop(ctx context.Context, ticks <-chan time.Time, stop func(), done chan struct{}) {
	defer close(done)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if c.Connected() {
				if err := c.SendPing(); err != nil {
					c.log.Debug("ping failed", zap.Error(err))
				}
				continue
			}
			c.reconnect(ctx)
		}
	}
}

func (c *Client) reconnect(ctx context.Context) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if ctx.Err() != nil || c.Connected() {
		return
	}
	if c.m != nil {
		c.m.ReconnectTotal.Inc()
	}
	c.teardownLocked()
	res, err := c.connectLocked(ctx)
	if err != nil {
		c.log.Info("reconnect failed", zap.Stringer("result", res), zap.Error(err))
		return
	}
	c.log.Info("reconnected")
}

func (c *Client) countConnect(r ConnectResult) {
	if c.m != nil {
		c.m.ConnectTotal.WithLabelValues(r.String()).Inc()
	}
}

// session 一次连接尝试的全部状态，连接断开即丢弃
type session struct {
	id      string
	conn    net.Conn
	decoder *blynk.StreamDecoder
	ids     msgIDs
	log     *zap.Logger

	// 仅读循环访问
	authResolved bool

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn net.Conn, maxBodyLen int, log *zap.Logger) *session {
	id := uuid.New().String()
	return &session{
		id:      id,
		conn:    conn,
		decoder: blynk.NewStreamDecoder(maxBodyLen),
		ids:     newMsgIDs(),
		log:     log.With(zap.String("session_id", id)),
		done:    make(chan struct{}),
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() { _ = s.conn.Close() })
}
