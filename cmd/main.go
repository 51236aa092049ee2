package main

import (
	api "alertflow/cmd/alertflow"
	"alertflow/conf"
	"alertflow/pkg/logger"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// 启动服务（监听webhook）

/*
测试

BODY='{"webhook_key":"3f1c2a4e-6b7d-4c8e-9f10-1a2b3c4d5e6f","time":"2023-09-14T15:55:00Z","exchange":"NASDAQ","ticker":"AAPL","timeframe":"5m","type":"long","bar":{"time":"2023-09-14T15:55:00Z","open":176.55,"high":176.58,"low":176.20,"close":176.40,"volume":113.629}}'

curl -X POST http://localhost:8080/webhook \
  -H "Content-Type: application/json" \
  -d "$BODY"
*/

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "alertflow",
		Short:         "TradingView alert to broker order pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "conf/config.yaml", "config file path")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and the dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the config and list strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd, configPath)
		},
	})
	return root
}

func loadConfig(path string) (*conf.Config, error) {
	// 加载配置文件
	if err := conf.LoadConfig(path); err != nil {
		return nil, err
	}
	cfg := conf.AppConfig
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func check(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	registry, err := api.NewRegistry(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config ok: %d strategies\n", registry.Len())
	for _, s := range registry.All() {
		fmt.Fprintf(out, "  %-24s enabled=%-5t broker=%s retries=%d delay=%gs qty=%s\n",
			s.Name, s.Enabled, s.Broker, s.MaxRetries, s.RetryDelay, s.OrderQty)
	}
	return nil
}

func serve(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	logger.InitLogger(&cfg.Log, cfg.AppName)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := api.InitApp(ctx, cfg)
	if err != nil {
		logger.Errorf("init app: %v", err)
		return err
	}
	defer app.Close()

	srv := api.NewServer(cfg)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx, app.Routers...)
	})
	// 调度器只在总线关闭并排空后退出，不跟随 gctx
	g.Go(func() error {
		return app.Dispatcher.Run(context.Background())
	})
	if app.Consumer != nil {
		g.Go(func() error {
			return app.Consumer.Run(gctx)
		})
	}
	// 先停 http，再关闭总线等待在途信号
	g.Go(func() error {
		<-gctx.Done()
		<-srv.Stopped()
		logger.Infof("draining dispatcher, timeout %s", cfg.Pipeline.ShutdownTimeout)
		shutdownCtx := context.Background()
		if cfg.Pipeline.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, cfg.Pipeline.ShutdownTimeout)
			defer cancel()
		}
		return app.Dispatcher.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("alertflow stopped with error: %v", err)
		return err
	}
	logger.Info("alertflow stopped")
	return nil
}
