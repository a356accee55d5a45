package posture

import (
	"testing"

	"PoseFeedback/internal/entity"
)

func rawOutput(n int) []entity.RawLandmark {
	raw := make([]entity.RawLandmark, n)
	for i := range raw {
		raw[i] = entity.RawLandmark{
			X:          float64(i) / 100,
			Y:          float64(i) / 50,
			Z:          -float64(i),
			Visibility: 0.1,
		}
	}
	return raw
}

func TestExtractLandmarksKeepsTrackedPoints(t *testing.T) {
	frame := ExtractLandmarks(rawOutput(33))

	if len(frame) != 13 {
		t.Fatalf("len(frame) = %d, want 13", len(frame))
	}

	for idx, name := range trackedLandmarks {
		lm, ok := frame[name]
		if !ok {
			t.Errorf("landmark %q missing", name)
			continue
		}
		if lm.Name != name {
			t.Errorf("frame[%q].Name = %q", name, lm.Name)
		}
		if lm.X != float64(idx)/100 || lm.Y != float64(idx)/50 || lm.Z != -float64(idx) {
			t.Errorf("frame[%q] = %+v, coordinates not copied from index %d", name, lm, idx)
		}
		if lm.Visibility != 0.1 {
			t.Errorf("frame[%q].Visibility = %v, want passthrough 0.1", name, lm.Visibility)
		}
	}
}

func TestExtractLandmarksShortOutput(t *testing.T) {
	frame := ExtractLandmarks(rawOutput(13))

	if _, ok := frame[Nose]; !ok {
		t.Errorf("nose missing from short output")
	}
	if _, ok := frame[LeftShoulder]; !ok {
		t.Errorf("left_shoulder missing from short output")
	}
	if _, ok := frame[LeftHip]; ok {
		t.Errorf("left_hip present although index 23 was never produced")
	}
}

func TestExtractLandmarksEmpty(t *testing.T) {
	if frame := ExtractLandmarks(nil); frame != nil {
		t.Errorf("ExtractLandmarks(nil) = %v, want nil", frame)
	}
	if frame := ExtractLandmarks([]entity.RawLandmark{}); frame != nil {
		t.Errorf("ExtractLandmarks(empty) = %v, want nil", frame)
	}
}
