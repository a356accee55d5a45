package entity

// RawLandmark is a single point as produced by the pose model, indexed by
// its position in the model output.
type RawLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

type Landmark struct {
	Name       string  `json:"-"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

type PoseFrame map[string]Landmark

func (f PoseFrame) Get(name string) *Landmark {
	lm, ok := f[name]
	if !ok {
		return nil
	}
	return &lm
}

type CheckDetail struct {
	HeightDifference float64 `json:"height_difference"`
	Status           string  `json:"status"`
}

type AnalysisResult struct {
	Success   bool                   `json:"success"`
	Feedback  string                 `json:"feedback"`
	Accuracy  int                    `json:"accuracy"`
	Landmarks PoseFrame              `json:"landmarks"`
	Details   map[string]interface{} `json:"detailed_analysis,omitempty"`
}
