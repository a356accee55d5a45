package posture

import (
	"fmt"

	"PoseFeedback/internal/entity"
)

type unimplementedRoutine struct {
	kind ExerciseKind
}

// Unimplemented registers kind without a scoring routine. Scoring through it
// always fails with ErrRoutineNotImplemented.
func Unimplemented(kind ExerciseKind) Routine {
	return unimplementedRoutine{kind: kind}
}

func (r unimplementedRoutine) Kind() ExerciseKind {
	return r.kind
}

func (r unimplementedRoutine) Score(entity.PoseFrame) (*Assessment, error) {
	return nil, fmt.Errorf("%w: %s", ErrRoutineNotImplemented, r.kind)
}

func DefaultRoutines() []Routine {
	return []Routine{
		GeneralPosture(),
		Unimplemented(Plank),
		Unimplemented(Squat),
		Unimplemented(Pushup),
	}
}

type IDispatcher interface {
	Dispatch(kind ExerciseKind, frame entity.PoseFrame) (*Assessment, error)
	Implemented(kind ExerciseKind) bool
}

type dispatcher struct {
	routines map[ExerciseKind]Routine
}

// NewDispatcher fails unless every kind in AllKinds has exactly one routine.
func NewDispatcher(routines ...Routine) (IDispatcher, error) {
	registry := make(map[ExerciseKind]Routine, len(AllKinds))
	for _, r := range routines {
		if _, exists := registry[r.Kind()]; exists {
			return nil, fmt.Errorf("duplicate routine for %s", r.Kind())
		}
		registry[r.Kind()] = r
	}

	for _, kind := range AllKinds {
		if _, ok := registry[kind]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRoutine, kind)
		}
	}

	return &dispatcher{routines: registry}, nil
}

func (d *dispatcher) Dispatch(kind ExerciseKind, frame entity.PoseFrame) (*Assessment, error) {
	routine, ok := d.routines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExercise, kind)
	}
	return routine.Score(frame)
}

func (d *dispatcher) Implemented(kind ExerciseKind) bool {
	routine, ok := d.routines[kind]
	if !ok {
		return false
	}
	_, stub := routine.(unimplementedRoutine)
	return !stub
}
