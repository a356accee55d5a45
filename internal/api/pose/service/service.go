package poseService

import (
	"image"

	"PoseFeedback/internal/entity"
	"PoseFeedback/pkg/posture"
	"PoseFeedback/pkg/redis"
	websocketPkg "PoseFeedback/pkg/websocket"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IPoseService interface {
	// AnalyzeImage runs the pose model and the selected scoring routine on a
	// decoded image. encoded is the raw upload, used as the cache key;
	// it may be nil.
	AnalyzeImage(ctx context.Context, img image.Image, encoded []byte, kind posture.ExerciseKind) (*entity.AnalysisResult, error)
	ModelConnected() bool
	CacheEnabled() bool
	// CacheConnected reports whether the result cache answers a ping.
	CacheConnected(ctx context.Context) bool
}

type poseService struct {
	log        *logrus.Logger
	model      websocketPkg.IWebsocket
	dispatcher posture.IDispatcher
	cache      redis.IResultCache
}

func NewPoseService(
	log *logrus.Logger,
	model websocketPkg.IWebsocket,
	dispatcher posture.IDispatcher,
	cache redis.IResultCache,
) IPoseService {
	return &poseService{
		log:        log,
		model:      model,
		dispatcher: dispatcher,
		cache:      cache,
	}
}

func (s *poseService) ModelConnected() bool {
	return s.model != nil && s.model.IsConnected()
}

func (s *poseService) CacheEnabled() bool {
	return s.cache != nil
}

func (s *poseService) CacheConnected(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.Ping(ctx); err != nil {
		s.log.WithField("error", err.Error()).Warn("Result cache ping failed")
		return false
	}
	return true
}
