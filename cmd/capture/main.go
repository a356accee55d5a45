package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"PoseFeedback/internal/capture"
	"PoseFeedback/internal/config"
	"PoseFeedback/pkg/log"
	"PoseFeedback/pkg/opencv"
	websocketPkg "PoseFeedback/pkg/websocket"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func main() {
	profilePath := flag.String("config", "", "path to a capture profile (YAML)")
	testOnly := flag.Bool("test-connection", false, "read one frame from the source and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := log.NewLogger()
	_ = godotenv.Load()
	log.SetDebug(*debug)

	profile, err := config.LoadCaptureProfile(*profilePath)
	if err != nil {
		logger.Fatalf("Invalid capture profile: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, logger, profile, *testOnly)
	stop()

	if err != nil {
		if errors.Is(err, capture.ErrSourceUnavailable) {
			logger.Errorf("Video source stopped: %v", err)
		} else {
			logger.Errorf("Capture failed: %v", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logrus.Logger, profile *config.CaptureProfile, testOnly bool) error {
	open := opener(profile)

	if testOnly {
		frame, err := capture.CheckConnection(ctx, open)
		if err != nil {
			return err
		}
		logger.WithField("size", frame.Bounds().Size().String()).Info("Connection test successful")
		return nil
	}

	model := websocketPkg.NewPoseModelClient(websocketPkg.DefaultConfig(profile.Model.URL))
	defer model.CloseConnections()

	var renderer capture.Renderer
	if profile.Render.Mode == config.RenderWindow {
		window := opencv.NewWindowRenderer(profile.Render.WindowName, profile.Render.CancelKey[0])
		defer window.Close()
		renderer = window
		logger.Infof("Press '%s' to quit", profile.Render.CancelKey)
	} else {
		renderer = capture.NewLogRenderer(logger)
	}

	loopCfg := capture.Config{
		Width:  profile.Resolution.Width,
		Height: profile.Resolution.Height,
	}
	if profile.Source.Network() {
		loopCfg.StatusLabel = capture.StatusConnected
	}

	loop, err := capture.NewLoop(logger, open, model, renderer, loopCfg)
	if err != nil {
		return err
	}

	logger.WithField("source", profile.Source.Kind).Info("Starting pose capture")
	_, err = loop.Run(ctx)
	return err
}

func opener(profile *config.CaptureProfile) capture.Opener {
	switch profile.Source.Kind {
	case config.SourceRTSP:
		return opencv.OpenStream(profile.Source.URL)
	case config.SourceImage:
		return capture.OpenStillImage(profile.Source.Path)
	default:
		return opencv.OpenDevice(profile.Source.Device)
	}
}
