package relay

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/metrics"
)

type write struct {
	pin    int
	values []any
}

type fakeSink struct {
	mu     sync.Mutex
	writes []write
	err    error
}

func (f *fakeSink) WriteVirtualPin(pin int, values ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, write{pin, values})
	return nil
}

func (f *fakeSink) snapshot() []write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]write(nil), f.writes...)
}

func startRelay(t *testing.T, sink Sink, pins *PinMap, rate, burst int) (*Server, *metrics.AppMetrics, net.Conn) {
	t.Helper()
	m := metrics.NewAppMetrics(metrics.NewRegistry())
	s := New(cfgpkg.RelayConfig{Addr: "127.0.0.1:0", RatePerSec: rate, Burst: burst}, sink, pins, nil, m)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	conn, err := net.Dial("udp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return s, m, conn
}

func TestServer_Forward(t *testing.T) {
	sink := &fakeSink{}
	pins := &PinMap{Pins: map[string]int{"temp": 7}}
	_, m, conn := startRelay(t, sink, pins, 1000, 1000)

	for _, d := range []string{"3 21.5", "temp -4", "  5   1e2 ", "bad", "x 1", "3 abc", "3 NaN", "3 1 2"} {
		_, err := conn.Write([]byte(d))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.RelayDatagrams.WithLabelValues("ok"))+
			testutil.ToFloat64(m.RelayDatagrams.WithLabelValues("bad")) == 8
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []write{
		{3, []any{21.5}},
		{7, []any{-4.0}},
		{5, []any{100.0}},
		{3, []any{1.0}},
	}, sink.snapshot())
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RelayDatagrams.WithLabelValues("bad")))
}

func TestServer_RateLimited(t *testing.T) {
	sink := &fakeSink{}
	s, m, conn := startRelay(t, sink, nil, 1, 2)

	for i := 0; i < 5; i++ {
		_, err := conn.Write([]byte("1 1"))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return s.Stats().AllowedTotal+s.Stats().RejectedTotal == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), s.Stats().AllowedTotal)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RelayDatagrams.WithLabelValues("limited")))
	assert.Len(t, sink.snapshot(), 2)
}

func TestServer_SinkError(t *testing.T) {
	sink := &fakeSink{err: errors.New("not connected")}
	_, m, conn := startRelay(t, sink, nil, 100, 100)

	_, err := conn.Write([]byte("1 1"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.RelayDatagrams.WithLabelValues("error")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_StopIdempotent(t *testing.T) {
	s := New(cfgpkg.RelayConfig{Addr: "127.0.0.1:0"}, &fakeSink{}, nil, nil, nil)
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
}

func TestPinMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pins:\n  Temp: 3\n  humidity: 4\n"), 0o644))

	m, err := LoadPinMap(path)
	require.NoError(t, err)

	cases := []struct {
		key  string
		pin  int
		want bool
	}{
		{"Temp", 3, true},
		{"temp", 3, true},
		{"humidity", 4, true},
		{"12", 12, true},
		{"-1", 0, false},
		{"pressure", 0, false},
	}
	for _, c := range cases {
		pin, ok := m.Resolve(c.key)
		assert.Equal(t, c.want, ok, c.key)
		if c.want {
			assert.Equal(t, c.pin, pin, c.key)
		}
	}

	var nilMap *PinMap
	pin, ok := nilMap.Resolve("9")
	assert.True(t, ok)
	assert.Equal(t, 9, pin)
}

func TestLoadPinMap_Errors(t *testing.T) {
	_, err := LoadPinMap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "neg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pins:\n  a: -2\n"), 0o644))
	_, err = LoadPinMap(path)
	assert.Error(t, err)
}
