package config

import (
	"PoseFeedback/internal/api/pose"
	poseHandler "PoseFeedback/internal/api/pose/handler"
	poseService "PoseFeedback/internal/api/pose/service"
	"PoseFeedback/internal/middleware"
	"PoseFeedback/pkg/posture"
	"PoseFeedback/pkg/redis"
	"PoseFeedback/pkg/utils"
	websocketPkg "PoseFeedback/pkg/websocket"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const cachePingTimeout = time.Second

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	poseModel   websocketPkg.IWebsocket
	dispatcher  posture.IDispatcher
	resultCache redis.IResultCache
	appConfig   *AppConfig
	poseService poseService.IPoseService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.poseModel == nil {
		return nil, fmt.Errorf("pose model client is required")
	}
	if server.appConfig == nil {
		server.appConfig = &AppConfig{Port: DefaultPort, AllowedOrigins: middleware.DefaultAllowedOrigins}
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, middleware.WithAllowedOrigins(server.appConfig.AllowedOrigins))
	}
	if server.dispatcher == nil {
		dispatcher, err := posture.NewDispatcher(posture.DefaultRoutines()...)
		if err != nil {
			return nil, fmt.Errorf("failed to build exercise dispatcher: %w", err)
		}
		server.dispatcher = dispatcher
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithAppConfig(cfg *AppConfig) ServerOption {
	return func(s *Server) error {
		if cfg == nil {
			return fmt.Errorf("app config is nil")
		}
		s.appConfig = cfg
		return nil
	}
}

func WithPoseModel(model websocketPkg.IWebsocket) ServerOption {
	return func(s *Server) error {
		s.poseModel = model
		return nil
	}
}

// WithResultCache enables the Redis result cache. A nil cache leaves it off.
func WithResultCache(cache redis.IResultCache) ServerOption {
	return func(s *Server) error {
		s.resultCache = cache
		return nil
	}
}

func WithDispatcher(dispatcher posture.IDispatcher) ServerOption {
	return func(s *Server) error {
		s.dispatcher = dispatcher
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		var origins []string
		if s.appConfig != nil {
			origins = s.appConfig.AllowedOrigins
		}
		s.middleware = middleware.New(s.log, middleware.WithAllowedOrigins(origins))
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	s.engine.Use(s.middleware.NewCORSMiddleware())
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)

	// Pose Domain
	s.poseService = poseService.NewPoseService(s.log, s.poseModel, s.dispatcher, s.resultCache)
	poseHandlers := poseHandler.New(s.log, s.validator, s.middleware, s.poseService, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, poseHandlers)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

func (s *Server) Run() error {
	port := s.appConfig.Port
	if port == "" {
		port = DefaultPort
	}

	s.log.WithFields(logrus.Fields{
		"port":            port,
		"allowed_origins": s.appConfig.AllowedOrigins,
		"reload":          s.appConfig.Reload,
		"cache_enabled":   s.resultCache != nil,
	}).Info("Starting pose analysis server")

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown() error {
	s.poseModel.CloseConnections()
	return s.engine.Shutdown()
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(pose.ServiceInfoResponse{
			Message: "Pose Analysis API",
			Status:  "running",
			Version: pose.Version,
		})
	})

	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(pose.HealthResponse{
			Status:         "healthy",
			Service:        pose.ServiceName,
			ModelConnected: s.poseService.ModelConnected(),
			CacheEnabled:   s.poseService.CacheEnabled(),
			CacheConnected: s.cacheConnected(ctx),
		})
	})

	s.engine.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	s.engine.Get("/env", func(ctx *fiber.Ctx) error {
		return ctx.JSON(pose.EnvResponse{
			Go:             runtime.Version(),
			Fiber:          fiber.Version,
			PoseModelURL:   s.appConfig.PoseModelURL,
			ModelConnected: s.poseService.ModelConnected(),
			CacheConnected: s.cacheConnected(ctx),
		})
	})
}

func (s *Server) cacheConnected(ctx *fiber.Ctx) bool {
	c, cancel := context.WithTimeout(ctx.UserContext(), cachePingTimeout)
	defer cancel()
	return s.poseService.CacheConnected(c)
}
