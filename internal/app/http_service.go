package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// HTTPService 管理端 API 的 HTTP 服务
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 创建 HTTP 服务
// 上传钱包文件时请求体较大，只限制请求头读取时间
func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Start 监听并服务，ctx 由 Runner 负责取消
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的请求结束
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
