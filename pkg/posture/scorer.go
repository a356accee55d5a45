package posture

import (
	"strings"

	"PoseFeedback/internal/entity"
)

const (
	shoulderLevelThreshold = 0.05
	hipLevelThreshold      = 0.03
	stableVisibility       = 0.8
	stableLandmarkCount    = 8

	shoulderDeduction = 15
	hipDeduction      = 10
	uprightDeduction  = 20
	stableDeduction   = 10

	insufficientVisibilityAccuracy = 20

	statusGood             = "good"
	statusNeedsImprovement = "needs_improvement"
)

const (
	MsgInsufficientVisibility = "Please ensure your full body is visible in the camera"
	MsgShouldersUneven        = "Keep your shoulders level"
	MsgShouldersGood          = "Good shoulder alignment"
	MsgHipsUneven             = "Align your hips properly"
	MsgHipsGood               = "Good hip alignment"
	MsgNotUpright             = "Maintain upright posture"
	MsgStable                 = "Good pose stability"
	MsgUnstable               = "Try to stay more stable"
	MsgGreatPosture           = "Great posture!"

	DetailInsufficientVisibility = "Insufficient landmark visibility"

	feedbackSeparator = " | "
)

var requiredLandmarks = []string{LeftShoulder, RightShoulder, LeftHip, RightHip}

type generalRoutine struct{}

// GeneralPosture scores shoulder and hip alignment, uprightness and stability.
func GeneralPosture() Routine {
	return generalRoutine{}
}

func (generalRoutine) Kind() ExerciseKind {
	return General
}

func (generalRoutine) Score(frame entity.PoseFrame) (*Assessment, error) {
	for _, name := range requiredLandmarks {
		lm, ok := frame[name]
		if !ok || lm.Visibility < VisibilityFloor {
			return &Assessment{
				Feedback: MsgInsufficientVisibility,
				Accuracy: insufficientVisibilityAccuracy,
				Details:  map[string]interface{}{"error": DetailInsufficientVisibility},
			}, nil
		}
	}

	var feedback []string
	score := 100
	details := make(map[string]interface{})

	leftShoulder, rightShoulder := frame[LeftShoulder], frame[RightShoulder]
	shoulderDiff := VerticalDifferential(leftShoulder, rightShoulder)
	if shoulderDiff > shoulderLevelThreshold {
		feedback = append(feedback, MsgShouldersUneven)
		score -= shoulderDeduction
	} else {
		feedback = append(feedback, MsgShouldersGood)
	}
	details["shoulder_alignment"] = alignmentDetail(shoulderDiff, shoulderLevelThreshold)

	leftHip, rightHip := frame[LeftHip], frame[RightHip]
	hipDiff := VerticalDifferential(leftHip, rightHip)
	if hipDiff > hipLevelThreshold {
		feedback = append(feedback, MsgHipsUneven)
		score -= hipDeduction
	} else {
		feedback = append(feedback, MsgHipsGood)
	}
	details["hip_alignment"] = alignmentDetail(hipDiff, hipLevelThreshold)

	// y grows downward: a larger shoulder average means shoulders sit below hips.
	avgShoulderY := (leftShoulder.Y + rightShoulder.Y) / 2
	avgHipY := (leftHip.Y + rightHip.Y) / 2
	if avgShoulderY > avgHipY {
		feedback = append(feedback, MsgNotUpright)
		score -= uprightDeduction
	}

	if countVisible(frame, stableVisibility) >= stableLandmarkCount {
		feedback = append(feedback, MsgStable)
	} else {
		feedback = append(feedback, MsgUnstable)
		score -= stableDeduction
	}

	message := MsgGreatPosture
	if len(feedback) > 0 {
		message = strings.Join(feedback, feedbackSeparator)
	}

	return &Assessment{
		Feedback: message,
		Accuracy: clampAccuracy(score),
		Details:  details,
	}, nil
}

func alignmentDetail(diff, threshold float64) entity.CheckDetail {
	status := statusGood
	if diff > threshold {
		status = statusNeedsImprovement
	}
	return entity.CheckDetail{
		HeightDifference: diff,
		Status:           status,
	}
}

func countVisible(frame entity.PoseFrame, threshold float64) int {
	count := 0
	for _, lm := range frame {
		if lm.Visibility > threshold {
			count++
		}
	}
	return count
}
