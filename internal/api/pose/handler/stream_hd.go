package poseHandler

import (
	"PoseFeedback/internal/api/pose"
	"PoseFeedback/internal/middleware"
	contextPkg "PoseFeedback/pkg/context"
	"PoseFeedback/pkg/posture"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

// handleLiveAnalysis scores one binary image frame per message and answers
// with one AnalysisResult each. Bad frames get a {"detail": ...} reply and the
// connection stays open.
func (h *PoseHandler) handleLiveAnalysis(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	logger := h.log.WithField("request_id", requestID)

	logger.Info("Live analysis client connected")
	defer logger.Info("Live analysis client disconnected")

	kind, err := posture.ParseExerciseKind(c.Query("exercise"))
	if err != nil {
		_ = c.WriteJSON(pose.ErrorResponse{Detail: err.Error()})
		return
	}

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Live analysis websocket error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		reply := h.analyzeFrame(requestID, message, kind)

		if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			logger.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			logger.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

func (h *PoseHandler) analyzeFrame(requestID string, frame []byte, kind posture.ExerciseKind) interface{} {
	img, err := h.utils.DecodeImage(frame)
	if err != nil {
		return pose.ErrorResponse{Detail: pose.ErrInvalidImageFormat.Error()}
	}

	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), requestTimeout)
	defer cancel()

	result, err := h.poseService.AnalyzeImage(ctx, img, frame, kind)
	if err != nil {
		if errors.Is(err, posture.ErrRoutineNotImplemented) {
			return pose.ErrorResponse{Detail: err.Error()}
		}
		h.log.WithField("request_id", requestID).Errorf("Error analysing frame: %v", err)
		return pose.ErrorResponse{Detail: "Analysis failed: " + err.Error()}
	}

	return result
}
