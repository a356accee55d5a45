package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	SourceWebcam = "webcam"
	SourceRTSP   = "rtsp"
	SourceImage  = "image"

	RenderWindow   = "window"
	RenderHeadless = "headless"
)

type CaptureProfile struct {
	Source     SourceConfig     `yaml:"source"`
	Resolution ResolutionConfig `yaml:"resolution"`
	Render     RenderConfig     `yaml:"render"`
	Model      ModelConfig      `yaml:"model"`
}

type SourceConfig struct {
	Kind   string `yaml:"kind"`
	Device int    `yaml:"device"`
	URL    string `yaml:"url"`
	Path   string `yaml:"path"`
}

type ResolutionConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type RenderConfig struct {
	Mode       string `yaml:"mode"`
	WindowName string `yaml:"window_name"`
	CancelKey  string `yaml:"cancel_key"`
}

type ModelConfig struct {
	URL string `yaml:"url"`
}

// Network reports whether the source is a remote stream.
func (s SourceConfig) Network() bool {
	return s.Kind == SourceRTSP
}

// DefaultCaptureProfile is a local webcam rendered to a window at 1280x720.
func DefaultCaptureProfile() *CaptureProfile {
	return &CaptureProfile{
		Source:     SourceConfig{Kind: SourceWebcam},
		Resolution: ResolutionConfig{Width: 1280, Height: 720},
		Render: RenderConfig{
			Mode:       RenderWindow,
			WindowName: "Pose Feedback",
			CancelKey:  "q",
		},
		Model: ModelConfig{URL: DefaultPoseModelURL},
	}
}

// LoadCaptureProfile starts from DefaultCaptureProfile, overlays the YAML file
// at path when one is given, then applies environment overrides:
//
//	POSE_CAPTURE_SOURCE, POSE_CAPTURE_DEVICE, POSE_CAPTURE_URL,
//	POSE_CAPTURE_IMAGE, POSE_CAPTURE_RENDER, POSE_MODEL_URL
func LoadCaptureProfile(path string) (*CaptureProfile, error) {
	cfg := DefaultCaptureProfile()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading capture profile: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing capture profile: %w", err)
		}
	}

	if err := applyCaptureEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("capture profile validation: %w", err)
	}

	return cfg, nil
}

func applyCaptureEnv(cfg *CaptureProfile) error {
	if v := os.Getenv("POSE_CAPTURE_SOURCE"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("POSE_CAPTURE_DEVICE"); v != "" {
		device, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POSE_CAPTURE_DEVICE must be an integer, got %q", v)
		}
		cfg.Source.Device = device
	}
	if v := os.Getenv("POSE_CAPTURE_URL"); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv("POSE_CAPTURE_IMAGE"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("POSE_CAPTURE_RENDER"); v != "" {
		cfg.Render.Mode = v
	}
	if v := os.Getenv("POSE_MODEL_URL"); v != "" {
		cfg.Model.URL = v
	}
	return nil
}

func (c *CaptureProfile) Validate() error {
	switch c.Source.Kind {
	case SourceWebcam:
		if c.Source.Device < 0 {
			return fmt.Errorf("source.device must be >= 0, got %d", c.Source.Device)
		}
	case SourceRTSP:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required for rtsp sources")
		}
		u, err := url.Parse(c.Source.URL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("source.url %q is not a valid stream URL", c.Source.URL)
		}
		switch u.Scheme {
		case "rtsp", "rtsps", "http", "https":
		default:
			return fmt.Errorf("source.url scheme %q is not supported", u.Scheme)
		}
	case SourceImage:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for image sources")
		}
	default:
		return fmt.Errorf("source.kind must be one of webcam, rtsp, image, got %q", c.Source.Kind)
	}

	if c.Resolution.Width <= 0 || c.Resolution.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", c.Resolution.Width, c.Resolution.Height)
	}

	switch c.Render.Mode {
	case RenderWindow, RenderHeadless:
	default:
		return fmt.Errorf("render.mode must be window or headless, got %q", c.Render.Mode)
	}
	if len(c.Render.CancelKey) != 1 {
		return fmt.Errorf("render.cancel_key must be a single character, got %q", c.Render.CancelKey)
	}

	if c.Model.URL == "" {
		return fmt.Errorf("model.url is required")
	}

	return nil
}
