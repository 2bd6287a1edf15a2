package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/chengxue2020/Cat-ports/config"
	"github.com/chengxue2020/Cat-ports/core/auth"
	"github.com/chengxue2020/Cat-ports/core/host"
	"github.com/chengxue2020/Cat-ports/core/plugin"
	"github.com/chengxue2020/Cat-ports/core/proxy"
	"github.com/chengxue2020/Cat-ports/core/update"
	"github.com/chengxue2020/Cat-ports/core/video"
	"github.com/chengxue2020/Cat-ports/logger"
	"github.com/chengxue2020/Cat-ports/model"
)

// Server 宿主桥接服务
type Server struct {
	cfg      *config.Config
	plugins  *plugin.Manager
	hub      *host.Hub
	notifier *update.Notifier
	signer   *auth.Signer
	crawler  *proxy.Crawler
	vod      *video.Ikanbot
}

// New 按配置组装服务
func New(cfg *config.Config) (*Server, error) {
	plugins, err := BuildManager(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		plugins: plugins,
		hub:     host.NewHub(plugins),
		crawler: proxy.NewCrawler(cfg.ProxyUserAgent, cfg.ResolveTimeout),
		vod:     video.NewIkanbot(cfg.VodBaseURL, cfg.ResolveTimeout),
	}

	if cfg.AuthSecret != "" {
		if s.signer, err = auth.NewSigner(cfg.AuthSecret); err != nil {
			return nil, err
		}
	}

	if n := BuildNotifier(cfg, plugins, s.hub); n != nil {
		s.notifier = n
	}
	return s, nil
}

// Hub 宿主连接管理中心
func (s *Server) Hub() *host.Hub { return s.hub }

// Router 注册全部路由
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/aggregators", s.AggregatorsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sources", s.SourcesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/request", s.AuthMiddleware(s.RequestHandler)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/ws", s.AuthMiddleware(s.WebSocketHandler)).Methods(http.MethodGet)
	router.Handle("/proxy", s.crawler).Methods(http.MethodGet)

	RegisterVodRoutes(router, s.vod)
	return router
}

// Run 启动 Hub 并广播 inited，ctx 结束后停止
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()

	src, err := s.plugins.GetDefault()
	if err != nil {
		return err
	}
	s.hub.Send(model.EventInited, src.Inited())

	if s.notifier != nil {
		s.notifier.Start(ctx)
	}
	return nil
}

// Start 启动 HTTP 服务，收到中断信号后优雅关闭
func Start(cfg *config.Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Run(ctx); err != nil {
		return err
	}
	defer s.hub.Stop()

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] 服务启动",
			logger.String("addr", cfg.ServerAddr),
			logger.String("aggregator", s.plugins.DefaultName()),
			logger.Bool("auth", s.signer != nil))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("[Server] 正在关闭服务")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("[Server] 服务已停止")
	return nil
}
