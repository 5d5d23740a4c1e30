// Package relay 把本地 UDP 数据报转发为虚拟引脚写入
package relay

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/metrics"
)

const maxDatagram = 1500

var (
	ErrBadDatagram = errors.New("bad datagram")
	ErrUnknownPin  = errors.New("unknown pin")
)

// Sink 转发目标
type Sink interface {
	WriteVirtualPin(pin int, values ...any) error
}

// Server UDP 转发服务：每个数据报形如 "<pin|alias> <value>"
type Server struct {
	cfg     cfgpkg.RelayConfig
	sink    Sink
	pins    *PinMap
	limiter *RateLimiter
	log     *zap.Logger
	m       *metrics.AppMetrics

	conn  net.PacketConn
	wg    sync.WaitGroup
	stopC chan struct{}
	once  sync.Once
}

// New 创建转发服务；pins 可为 nil
func New(cfg cfgpkg.RelayConfig, sink Sink, pins *PinMap, log *zap.Logger, m *metrics.AppMetrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		sink:    sink,
		pins:    pins,
		limiter: NewRateLimiter(cfg.RatePerSec, cfg.Burst),
		log:     log.With(zap.String("component", "relay")),
		m:       m,
		stopC:   make(chan struct{}),
	}
}

// Start 绑定端口并在后台 goroutine 中接收
func (s *Server) Start() error {
	conn, err := net.ListenPacket("udp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("relay listen %s: %w", s.cfg.Addr, err)
	}
	s.conn = conn
	s.log.Info("relay listening", zap.String("addr", conn.LocalAddr().String()))

	s.wg.Add(1)
	go s.serve()
	return nil
}

// Addr 实际监听地址
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Stop 关闭套接字并等待接收循环退出
func (s *Server) Stop() {
	s.once.Do(func() {
		close(s.stopC)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
	s.wg.Wait()
}

// Stats 限流统计
func (s *Server) Stats() RateLimiterStats { return s.limiter.Stats() }

func (s *Server) serve() {
	defer s.wg.Done()
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("relay read", zap.Error(err))
			continue
		}
		s.handle(string(buf[:n]), from)
	}
}

func (s *Server) handle(data string, from net.Addr) {
	if !s.limiter.Allow() {
		s.count("limited")
		return
	}
	pin, value, err := s.parse(data)
	if err != nil {
		s.count("bad")
		s.log.Warn("bad datagram", zap.Stringer("from", from), zap.String("data", data), zap.Error(err))
		return
	}
	if err := s.sink.WriteVirtualPin(pin, value); err != nil {
		s.count("error")
		s.log.Debug("relay forward failed", zap.Int("pin", pin), zap.Error(err))
		return
	}
	s.count("ok")
	s.log.Debug("relay forwarded", zap.Int("pin", pin), zap.Float64("value", value))
}

// parse 解析 "<pin|alias> <value>"，多余的空白与第二个之后的字段被忽略
func (s *Server) parse(data string) (int, float64, error) {
	fields := strings.Fields(data)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("%w: want 2 fields, got %d", ErrBadDatagram, len(fields))
	}
	pin, ok := s.pins.Resolve(fields[0])
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownPin, fields[0])
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, 0, fmt.Errorf("%w: value %q", ErrBadDatagram, fields[1])
	}
	return pin, value, nil
}

func (s *Server) count(result string) {
	if s.m != nil {
		s.m.RelayDatagrams.WithLabelValues(result).Inc()
	}
}
