package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	appmetrics "github.com/taoyao-code/pinlink/internal/metrics"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthzReadyzMetrics(t *testing.T) {
	cfg := cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	reg := appmetrics.NewRegistry()
	appmetrics.NewAppMetrics(reg)
	srv := New(cfg, "/metrics", appmetrics.Handler(reg), func() bool { return true }, nil)

	if rr := serve(srv, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("/healthz code=%d", rr.Code)
	}
	if rr := serve(srv, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("/readyz code=%d", rr.Code)
	}
	if rr := serve(srv, "/metrics"); rr.Code != http.StatusOK {
		t.Fatalf("/metrics code=%d", rr.Code)
	}
}

func TestReadyzNotReady(t *testing.T) {
	cfg := cfgpkg.HTTPConfig{Addr: ":0"}
	srv := New(cfg, "", nil, func() bool { return false }, nil)

	if rr := serve(srv, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz not-ready code=%d", rr.Code)
	}
	if rr := serve(srv, "/metrics"); rr.Code != http.StatusNotFound {
		t.Fatalf("/metrics without handler code=%d", rr.Code)
	}
}

func TestRegistrar(t *testing.T) {
	srv := New(cfgpkg.HTTPConfig{Addr: ":0"}, "", nil, nil, nil, func(r gin.IRouter) {
		r.GET("/extra", func(c *gin.Context) { c.String(http.StatusTeapot, "x") })
	})
	if rr := serve(srv, "/extra"); rr.Code != http.StatusTeapot {
		t.Fatalf("/extra code=%d", rr.Code)
	}
}
