package posture

import "PoseFeedback/internal/entity"

var trackedLandmarks = map[int]string{
	0:  Nose,
	11: LeftShoulder,
	12: RightShoulder,
	13: LeftElbow,
	14: RightElbow,
	15: LeftWrist,
	16: RightWrist,
	23: LeftHip,
	24: RightHip,
	25: LeftKnee,
	26: RightKnee,
	27: LeftAnkle,
	28: RightAnkle,
}

// ExtractLandmarks keeps the tracked points of a raw model output and drops
// the rest. Visibility is passed through as-is. A nil frame means no pose.
func ExtractLandmarks(raw []entity.RawLandmark) entity.PoseFrame {
	if len(raw) == 0 {
		return nil
	}

	frame := make(entity.PoseFrame, len(trackedLandmarks))
	for idx, point := range raw {
		name, ok := trackedLandmarks[idx]
		if !ok {
			continue
		}
		frame[name] = entity.Landmark{
			Name:       name,
			X:          point.X,
			Y:          point.Y,
			Z:          point.Z,
			Visibility: point.Visibility,
		}
	}

	return frame
}
