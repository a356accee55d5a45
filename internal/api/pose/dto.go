package pose

type AnalyzeBase64Request struct {
	Image string `json:"image" validate:"required"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ServiceInfoResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	ModelConnected bool   `json:"model_connected"`
	CacheEnabled   bool   `json:"cache_enabled"`
	CacheConnected bool   `json:"cache_connected"`
}

type EnvResponse struct {
	Go             string `json:"go"`
	Fiber          string `json:"fiber"`
	PoseModelURL   string `json:"pose_model_url"`
	ModelConnected bool   `json:"model_connected"`
	CacheConnected bool   `json:"cache_connected"`
}

const (
	ServiceName = "pose-analysis"
	Version     = "1.0.0"

	MsgNoPoseDetected = "No pose detected. Please ensure you're fully visible in the camera."
	AnalysisErrorFmt  = "Analysis error: %s"
)
