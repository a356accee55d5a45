package posture

import (
	"errors"
	"fmt"
	"strings"

	"PoseFeedback/internal/entity"
)

const (
	Nose          = "nose"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// VisibilityFloor is the minimum confidence a required landmark needs to be scored.
const VisibilityFloor = 0.5

var (
	ErrRoutineNotImplemented = errors.New("exercise routine not implemented")
	ErrUnknownExercise       = errors.New("unknown exercise kind")
	ErrMissingRoutine        = errors.New("exercise kind has no routine")
)

// ExerciseKind selects the scoring routine. The zero value is General.
type ExerciseKind uint8

const (
	General ExerciseKind = iota
	Plank
	Squat
	Pushup
)

// AllKinds lists every ExerciseKind. A Dispatcher must hold a routine for each.
var AllKinds = []ExerciseKind{General, Plank, Squat, Pushup}

var exerciseKindMap = map[ExerciseKind]string{
	General: "general",
	Plank:   "plank",
	Squat:   "squat",
	Pushup:  "pushup",
}

func (k ExerciseKind) String() string {
	if name, ok := exerciseKindMap[k]; ok {
		return name
	}
	return fmt.Sprintf("exercise(%d)", uint8(k))
}

func ParseExerciseKind(s string) (ExerciseKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return General, nil
	}
	for kind, n := range exerciseKindMap {
		if n == name {
			return kind, nil
		}
	}
	return General, fmt.Errorf("%w: %q", ErrUnknownExercise, s)
}

// Assessment is the outcome of one scoring routine.
type Assessment struct {
	Feedback string
	Accuracy int
	Details  map[string]interface{}
}

// Routine scores a single pose frame for one exercise kind.
type Routine interface {
	Kind() ExerciseKind
	Score(frame entity.PoseFrame) (*Assessment, error)
}

func clampAccuracy(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
