// Package web Web API 服务
package web

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/smysle/redpacket-go/internal/config"
	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/metrics"
	"github.com/smysle/redpacket-go/internal/service"
	pkglogger "github.com/smysle/redpacket-go/pkg/logger"
	"github.com/smysle/redpacket-go/pkg/utils"
)

// Version 服务版本
const Version = "1.0.0"

// Server Web 服务器
type Server struct {
	app       *fiber.App
	cfg       config.APIConfig
	svc       *service.RedPacketService
	view      derive.ViewOptions
	startTime time.Time
}

// New 创建 Web 服务器
func New(cfg config.APIConfig, svc *service.RedPacketService, view derive.ViewOptions) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// 路径参数会被写入视图状态与缓存键，不能复用 fasthttp 的缓冲区
		Immutable: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	origins := "*"
	if len(cfg.AllowOrigins) > 0 {
		origins = strings.Join(cfg.AllowOrigins, ",")
	}

	// 中间件
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(observe)

	server := &Server{
		app:       app,
		cfg:       cfg,
		svc:       svc,
		view:      view,
		startTime: time.Now(),
	}

	// 注册路由
	server.registerRoutes()

	return server
}

// observe 记录请求指标，路径使用路由模板避免高基数
func observe(c *fiber.Ctx) error {
	err := c.Next()
	status := c.Response().StatusCode()
	if e, ok := err.(*fiber.Error); ok {
		status = e.Code
	}
	metrics.ObserveHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status))
	return err
}

// registerRoutes 注册路由
func (s *Server) registerRoutes() {
	// 健康检查
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/", s.healthCheck)

	// 详细状态
	s.app.Get("/status", s.detailedStatus)

	// 指标
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// API v1
	v1 := s.app.Group("/api/v1")

	packets := v1.Group("/packets")
	packets.Get("/", s.listPackets)
	packets.Post("/", s.createPacket)
	packets.Post("/refresh", s.refreshPackets)
	packets.Get("/:id/claims", s.claimHistory)
	packets.Post("/:id/toggle", s.togglePacket)
	packets.Get("/:id/eligibility", s.eligibility)
	packets.Post("/:id/claim", s.claimPacket)
	packets.Get("/:id/card.png", s.packetCard)

	v1.Get("/creators/:address/packets", s.creatorPackets)
	v1.Get("/notifications", s.notifications)
}

// App 底层 fiber 应用
func (s *Server) App() *fiber.App {
	return s.app
}

// Start 启动服务器
func (s *Server) Start() error {
	if !s.cfg.Enabled {
		pkglogger.Info().Msg("【API服务】未启用，跳过...")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	pkglogger.Info().Str("addr", addr).Msg("【API服务】启动中...")

	return s.app.Listen(addr)
}

// Stop 停止服务器
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// healthCheck 健康检查
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	})
}

// StatusResponse 详细状态响应
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Uptime  string       `json:"uptime"`
	System  SystemInfo   `json:"system"`
	Packets PacketStatus `json:"packets"`
}

// SystemInfo 系统信息
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     string `json:"mem_alloc"`
}

// PacketStatus 视图状态摘要
type PacketStatus struct {
	Loaded     bool   `json:"loaded"`
	Loading    bool   `json:"loading"`
	Refreshing bool   `json:"refreshing"`
	Total      int    `json:"total"`
	Claimable  int    `json:"claimable"`
	Expanded   string `json:"expanded,omitempty"`
	Viewer     string `json:"viewer,omitempty"`
	ReadOnly   bool   `json:"read_only"`
}

// detailedStatus 详细状态
func (s *Server) detailedStatus(c *fiber.Ctx) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := s.svc.Snapshot()

	return c.JSON(StatusResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  utils.FormatDuration(time.Since(s.startTime)),
		System: SystemInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     fmt.Sprintf("%.2f MB", float64(memStats.Alloc)/1024/1024),
		},
		Packets: PacketStatus{
			Loaded:     snap.Loaded,
			Loading:    snap.Loading,
			Refreshing: snap.Refreshing,
			Total:      len(snap.Packets),
			Claimable:  len(derive.Claimable(snap.Packets)),
			Expanded:   snap.Expanded,
			Viewer:     snap.Viewer,
			ReadOnly:   snap.Viewer == "",
		},
	})
}
