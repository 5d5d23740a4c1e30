package bootstrap

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/pinlink/internal/app"
	"github.com/taoyao-code/pinlink/internal/client"
	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/httpserver"
	"github.com/taoyao-code/pinlink/internal/metrics"
	"github.com/taoyao-code/pinlink/internal/relay"
)

const shutdownTimeout = 10 * time.Second

// Run 统一启动流程，阻塞到收到 SIGINT/SIGTERM
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return run(ctx, cfg, log)
}

func run(ctx context.Context, cfg *cfgpkg.Config, log *zap.Logger) error {
	log = log.With(zap.String("instance_id", app.GenerateInstanceID(cfg.App.Name)))
	log.Info("starting pinlink", zap.String("env", cfg.App.Env), zap.String("server", cfg.Client.Server))

	// ========== 阶段1: 指标与引脚缓存 ==========
	reg, appm := app.NewMetrics()

	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	bridge := app.NewPinBridge(app.NewPinStore(redisClient), log.Named("pins"))

	// ========== 阶段2: 协议客户端 ==========
	// 首次连接失败不退出，心跳定时器会按周期重连
	cli := client.New(cfg.Client, bridge,
		client.WithLogger(log.Named("client")),
		client.WithMetrics(appm),
	)
	bridge.Attach(cli)
	if res, err := cli.Connect(ctx); err != nil {
		log.Warn("initial connect failed, will retry", zap.Stringer("result", res), zap.Error(err))
	}

	healthAgg := app.NewHealthAggregator(cli)
	app.AddRedisChecker(healthAgg, redisClient)

	// ========== 阶段3: UDP 转发 ==========
	var relaySrv *relay.Server
	if cfg.Relay.Enable {
		relaySrv = app.NewRelay(cfg.Relay, bridge, log, appm)
		if err := relaySrv.Start(); err != nil {
			cli.Disconnect()
			return err
		}
		app.AddRelayChecker(healthAgg, relaySrv)
	}

	// ========== 阶段4: HTTP ==========
	var httpSrv *httpserver.Server
	if cfg.HTTP.Enable {
		httpSrv = app.NewHTTPServer(cfg, metrics.Handler(reg), cli.Connected, healthAgg, bridge, log)
		httpSrv.Start()
	}
	log.Info("all services started")

	// ========== 阶段5: 等待关闭信号 ==========
	<-ctx.Done()
	log.Info("received shutdown signal, gracefully shutting down...")

	if relaySrv != nil {
		relaySrv.Stop()
		log.Info("relay stopped")
	}
	cli.Disconnect()
	log.Info("client disconnected")

	if httpSrv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
		log.Info("http server stopped")
	}

	log.Info("shutdown complete")
	return nil
}
