package api

import (
	"alertflow/conf"
	"alertflow/pkg/logger"
	"alertflow/pkg/validator"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Router 加载路由，使用侧提供接口，实现侧需要实现该接口
type Router interface {
	Load(engine *gin.Engine)
}

type Server struct {
	config  *conf.Config
	stopped chan struct{}
}

func NewServer(c *conf.Config) *Server {
	return &Server{
		config:  c,
		stopped: make(chan struct{}),
	}
}

// Engine 创建gin实例并加载路由
func (s *Server) Engine(rs ...Router) *gin.Engine {
	// 设置gin启动模式，必须在创建gin实例之前
	if s.config.Mode != "" {
		gin.SetMode(s.config.Mode)
	}
	// gin validator替换
	validator.LazyInitGinValidator(s.config.Language)
	g := gin.New()
	s.routerLoad(g, rs...)
	return g
}

// Run 启动 http 服务，ctx 结束后优雅关闭，关闭完成后返回
func (s *Server) Run(ctx context.Context, rs ...Router) error {
	defer close(s.stopped)

	srv := http.Server{
		Addr:              s.config.Listen,
		Handler:           s.Engine(rs...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// health check
	go func() {
		if err := Ping(s.config.Listen, s.config.MaxPingCount); err != nil {
			logger.Errorf("server no response: %v", err)
			return
		}
		logger.Infof("server started success! port: %s", s.config.Listen)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server start failed on port %s", s.config.Listen)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("server shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown err %v", err)
		return err
	}
	logger.Infof("server stop on port %s", s.config.Listen)
	return nil
}

// Stopped http 服务完全停止后关闭
func (s *Server) Stopped() <-chan struct{} {
	return s.stopped
}

// RouterLoad 加载自定义路由
func (s *Server) routerLoad(g *gin.Engine, rs ...Router) *Server {
	for _, r := range rs {
		r.Load(g)
	}
	return s
}

// Ping 用来检查是否程序正常启动
func Ping(port string, maxCount int) error {
	seconds := 1
	if len(port) == 0 {
		return errors.New("please specify the service port")
	}
	if !strings.HasPrefix(port, ":") {
		if i := strings.LastIndex(port, ":"); i >= 0 {
			port = port[i:]
		} else {
			port = ":" + port
		}
	}
	url := fmt.Sprintf("http://localhost%s/ping", port)
	for i := 0; i < maxCount; i++ {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		logger.Infof("等待服务在线, 已等待 %d 秒，最多等待 %d 秒", seconds, maxCount)
		time.Sleep(time.Second * 1)
		seconds++
	}
	return fmt.Errorf("服务启动失败，端口 %s", port)
}
