package capture

import (
	"errors"
	"fmt"
	"image"
	"time"

	"PoseFeedback/internal/entity"
	"PoseFeedback/pkg/posture"
	"PoseFeedback/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// PoseModel is the part of the model client the loop needs.
type PoseModel interface {
	DetectPose(ctx context.Context, img image.Image) ([]entity.RawLandmark, error)
}

type Config struct {
	Width  int
	Height int
	// StatusLabel is drawn on analysed frames; empty for local devices.
	StatusLabel string
}

func DefaultConfig() Config {
	return Config{Width: 1280, Height: 720}
}

// Stats counts what happened during one run.
type Stats struct {
	FramesRead     int
	FramesAnalysed int
	FramesNoPose   int
	FramesSkipped  int
}

type Loop struct {
	open     Opener
	model    PoseModel
	renderer Renderer
	cfg      Config
	log      *logrus.Logger
}

func NewLoop(log *logrus.Logger, open Opener, model PoseModel, renderer Renderer, cfg Config) (*Loop, error) {
	if open == nil {
		return nil, fmt.Errorf("source opener is required")
	}
	if model == nil {
		return nil, fmt.Errorf("pose model is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}

	return &Loop{
		open:     open,
		model:    model,
		renderer: renderer,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Run pulls frames until the source fails or is exhausted, the renderer asks
// to stop or ctx is done. Exhaustion and cancellation are clean exits; a
// source failure returns an error wrapping ErrSourceUnavailable. The source is closed before Run returns,
// also when a panic unwinds through it.
func (l *Loop) Run(ctx context.Context) (stats Stats, err error) {
	src, err := l.open(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	start := time.Now()
	defer func() {
		if cerr := src.Close(); cerr != nil {
			l.log.WithField("error", cerr.Error()).Warn("Closing video source failed")
		}
		l.log.WithFields(logrus.Fields{
			"frames_read":     stats.FramesRead,
			"frames_analysed": stats.FramesAnalysed,
			"frames_no_pose":  stats.FramesNoPose,
			"frames_skipped":  stats.FramesSkipped,
			"elapsed":         time.Since(start).Round(time.Millisecond).String(),
		}).Info("Capture loop stopped")
	}()

	for {
		if ctx.Err() != nil {
			return stats, nil
		}

		frame, rerr := src.Read()
		if errors.Is(rerr, ErrSourceExhausted) {
			return stats, nil
		}
		if rerr != nil {
			return stats, fmt.Errorf("%w: %v", ErrSourceUnavailable, rerr)
		}
		stats.FramesRead++

		resized, overlay, aerr := l.analyse(ctx, frame)
		switch {
		case aerr != nil:
			stats.FramesSkipped++
			l.log.WithField("error", aerr.Error()).Warn("Skipping frame")
		case overlay == nil:
			stats.FramesNoPose++
		default:
			stats.FramesAnalysed++
		}

		// faulted frames are still shown raw so the renderer keeps polling input
		if resized == nil {
			resized = frame
		}
		if err := l.renderer.Render(ctx, resized, overlay); err != nil {
			l.log.WithField("error", err.Error()).Warn("Rendering frame failed")
		}

		if l.renderer.Cancelled() {
			return stats, nil
		}
	}
}

// analyse resizes the frame and runs the live check on it. A nil overlay
// with a nil error means no pose was found. On a fault the resized frame is
// still returned when available; panics come back as ErrAnalysisFault.
func (l *Loop) analyse(ctx context.Context, frame image.Image) (resized image.Image, overlay *Overlay, err error) {
	defer func() {
		if r := recover(); r != nil {
			overlay = nil
			err = fmt.Errorf("%w: panic: %v", ErrAnalysisFault, r)
		}
	}()

	resized = utils.ResizeFrame(frame, l.cfg.Width, l.cfg.Height)

	raw, err := l.model.DetectPose(ctx, resized)
	if err != nil {
		return resized, nil, fmt.Errorf("%w: detect pose: %v", ErrAnalysisFault, err)
	}

	landmarks := posture.ExtractLandmarks(raw)
	if landmarks == nil {
		return resized, nil, nil
	}

	live, err := posture.LiveCheck(landmarks)
	if err != nil {
		return resized, nil, fmt.Errorf("%w: %v", ErrAnalysisFault, err)
	}

	return resized, &Overlay{
		Feedback:    live.Feedback,
		Accuracy:    live.Accuracy,
		Band:        live.Band,
		StatusLabel: l.cfg.StatusLabel,
		Landmarks:   landmarks,
	}, nil
}

// CheckConnection opens the source, reads a single frame and closes it.
func CheckConnection(ctx context.Context, open Opener) (image.Image, error) {
	src, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer src.Close()

	frame, err := src.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return frame, nil
}
