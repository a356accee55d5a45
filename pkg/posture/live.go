package posture

import (
	"fmt"
	"strings"

	"PoseFeedback/internal/entity"
)

const (
	liveShoulderDeduction = 20
	liveHipDeduction      = 15

	MsgLiveShoulders = "Level shoulders"
	MsgLiveHips      = "Align hips"
	MsgLiveExcellent = "Excellent posture!"
)

// Band classifies an accuracy score for overlay colouring.
type Band uint8

const (
	BandPoor Band = iota
	BandCaution
	BandGood
)

func BandFor(accuracy int) Band {
	switch {
	case accuracy > 80:
		return BandGood
	case accuracy > 60:
		return BandCaution
	default:
		return BandPoor
	}
}

func (b Band) String() string {
	switch b {
	case BandGood:
		return "good"
	case BandCaution:
		return "caution"
	default:
		return "poor"
	}
}

type LiveFeedback struct {
	Feedback string
	Accuracy int
	Band     Band
}

// LiveCheck is the reduced shoulder/hip alignment check used for the live
// overlay. It does not apply the visibility gate.
func LiveCheck(frame entity.PoseFrame) (*LiveFeedback, error) {
	points := make(map[string]entity.Landmark, len(requiredLandmarks))
	for _, name := range requiredLandmarks {
		lm, ok := frame[name]
		if !ok {
			return nil, fmt.Errorf("landmark %s missing", name)
		}
		points[name] = lm
	}

	var messages []string
	accuracy := 100

	if VerticalDifferential(points[LeftShoulder], points[RightShoulder]) > shoulderLevelThreshold {
		messages = append(messages, MsgLiveShoulders)
		accuracy -= liveShoulderDeduction
	}
	if VerticalDifferential(points[LeftHip], points[RightHip]) > hipLevelThreshold {
		messages = append(messages, MsgLiveHips)
		accuracy -= liveHipDeduction
	}
	if len(messages) == 0 {
		messages = append(messages, MsgLiveExcellent)
	}

	accuracy = clampAccuracy(accuracy)
	return &LiveFeedback{
		Feedback: strings.Join(messages, feedbackSeparator),
		Accuracy: accuracy,
		Band:     BandFor(accuracy),
	}, nil
}
