package capture

import (
	"image"

	"PoseFeedback/internal/entity"
	"PoseFeedback/pkg/posture"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// StatusConnected labels frames from network streams.
const StatusConnected = "RTSP Connected"

// Overlay is what gets drawn on top of an analysed frame.
type Overlay struct {
	Feedback    string
	Accuracy    int
	Band        posture.Band
	StatusLabel string
	Landmarks   entity.PoseFrame
}

// Renderer displays frames. A nil overlay means the frame is shown as is.
type Renderer interface {
	Render(ctx context.Context, frame image.Image, overlay *Overlay) error
	// Cancelled is polled once per iteration after rendering.
	Cancelled() bool
}

// LogRenderer is a headless renderer that writes each overlay to the log.
type LogRenderer struct {
	log *logrus.Logger
}

func NewLogRenderer(log *logrus.Logger) *LogRenderer {
	return &LogRenderer{log: log}
}

func (r *LogRenderer) Render(_ context.Context, frame image.Image, overlay *Overlay) error {
	if overlay == nil {
		r.log.WithField("size", frame.Bounds().Size().String()).Debug("Frame without pose")
		return nil
	}

	fields := logrus.Fields{
		"feedback": overlay.Feedback,
		"accuracy": overlay.Accuracy,
		"band":     overlay.Band.String(),
	}
	if overlay.StatusLabel != "" {
		fields["status"] = overlay.StatusLabel
	}
	r.log.WithFields(fields).Info("Pose feedback")

	return nil
}

func (r *LogRenderer) Cancelled() bool {
	return false
}
