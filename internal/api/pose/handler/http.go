package poseHandler

import (
	poseService "PoseFeedback/internal/api/pose/service"
	"PoseFeedback/internal/middleware"
	"PoseFeedback/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"time"
)

const (
	requestTimeout = 15 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type PoseHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	poseService poseService.IPoseService
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ps poseService.IPoseService,
	utils utils.IUtils,
) *PoseHandler {
	return &PoseHandler{
		poseService: ps,
		log:         log,
		validator:   validator,
		middleware:  middleware,
		utils:       utils,
	}
}

func (h *PoseHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/analyze_pose", h.middleware.NewRateLimiter, h.AnalyzePose)
	srv.Post("/analyze_pose_base64", h.middleware.NewRateLimiter, h.AnalyzePoseBase64)

	ws := srv.Group("/ws")
	ws.Use("/analyze", wsMiddleware)
	ws.Get("/analyze", websocket.New(h.handleLiveAnalysis))
}
