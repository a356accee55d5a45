package poseService

import (
	"fmt"
	"image"

	"PoseFeedback/internal/api/pose"
	"PoseFeedback/internal/entity"
	"PoseFeedback/pkg/log"
	"PoseFeedback/pkg/posture"
	"PoseFeedback/pkg/redis"

	"golang.org/x/net/context"
)

func (s *poseService) AnalyzeImage(ctx context.Context, img image.Image, encoded []byte, kind posture.ExerciseKind) (*entity.AnalysisResult, error) {
	if !s.dispatcher.Implemented(kind) {
		return nil, fmt.Errorf("%w: %s", posture.ErrRoutineNotImplemented, kind)
	}

	var cacheKey string
	if s.cache != nil && len(encoded) > 0 {
		cacheKey = redis.Key(kind.String(), encoded)
		if cached, ok := s.cache.Get(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	raw, err := s.model.DetectPose(ctx, img)
	if err != nil {
		log.WithRequestID(ctx).WithField("error", err.Error()).Warn("Pose model call failed")
		return failure(fmt.Sprintf(pose.AnalysisErrorFmt, err.Error())), nil
	}

	frame := posture.ExtractLandmarks(raw)
	if frame == nil {
		log.WithRequestID(ctx).Debug("No pose detected")
		return failure(pose.MsgNoPoseDetected), nil
	}

	assessment, err := s.score(kind, frame)
	if err != nil {
		log.WithRequestID(ctx).WithField("error", err.Error()).Error("Pose scoring failed")
		return failure(fmt.Sprintf(pose.AnalysisErrorFmt, err.Error())), nil
	}

	result := &entity.AnalysisResult{
		Success:   true,
		Feedback:  assessment.Feedback,
		Accuracy:  assessment.Accuracy,
		Landmarks: frame,
		Details:   assessment.Details,
	}

	if cacheKey != "" {
		_ = s.cache.Set(ctx, cacheKey, result)
	}

	return result, nil
}

// score contains panics from a scoring routine so one malformed frame turns
// into a failed result instead of taking the request down.
func (s *poseService) score(kind posture.ExerciseKind, frame entity.PoseFrame) (assessment *posture.Assessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			assessment = nil
			err = fmt.Errorf("scoring %s panicked: %v", kind, r)
		}
	}()

	return s.dispatcher.Dispatch(kind, frame)
}

func failure(feedback string) *entity.AnalysisResult {
	return &entity.AnalysisResult{
		Success:   false,
		Feedback:  feedback,
		Accuracy:  0,
		Landmarks: nil,
	}
}
