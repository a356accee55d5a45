package capture

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"PoseFeedback/internal/entity"
	"PoseFeedback/pkg/log"
	"PoseFeedback/pkg/posture"

	"golang.org/x/net/context"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

type fakeSource struct {
	frames  int
	reads   int
	closes  int
	failErr error
}

func (s *fakeSource) Read() (image.Image, error) {
	if s.reads >= s.frames {
		return nil, s.failErr
	}
	s.reads++
	return image.NewRGBA(image.Rect(0, 0, 64, 48)), nil
}

func (s *fakeSource) Close() error {
	s.closes++
	return nil
}

func (s *fakeSource) opener() Opener {
	return func(context.Context) (Source, error) { return s, nil }
}

type scriptedModel struct {
	calls   int
	script  func(call int) ([]entity.RawLandmark, error)
	lastImg image.Image
}

func (m *scriptedModel) DetectPose(_ context.Context, img image.Image) ([]entity.RawLandmark, error) {
	m.calls++
	m.lastImg = img
	return m.script(m.calls)
}

type recordingRenderer struct {
	overlays    []*Overlay
	frames      []image.Image
	cancelAfter int
}

func (r *recordingRenderer) Render(_ context.Context, frame image.Image, o *Overlay) error {
	r.overlays = append(r.overlays, o)
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingRenderer) Cancelled() bool {
	return r.cancelAfter > 0 && len(r.overlays) >= r.cancelAfter
}

func pose(lsY, rsY, lhY, rhY float64) []entity.RawLandmark {
	raw := make([]entity.RawLandmark, 33)
	for i := range raw {
		raw[i] = entity.RawLandmark{X: 0.5, Y: 0.85, Visibility: 0.9}
	}
	raw[11].Y, raw[12].Y = lsY, rsY
	raw[23].Y, raw[24].Y = lhY, rhY
	return raw
}

func newLoop(t *testing.T, open Opener, model PoseModel, r Renderer, cfg Config) *Loop {
	t.Helper()
	l, err := NewLoop(log.NewLogger(), open, model, r, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRunFirstReadFailure(t *testing.T) {
	src := &fakeSource{failErr: errors.New("stream down")}
	model := &scriptedModel{script: func(int) ([]entity.RawLandmark, error) { return nil, nil }}
	renderer := &recordingRenderer{}

	stats, err := newLoop(t, src.opener(), model, renderer, DefaultConfig()).Run(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Run() error = %v, want ErrSourceUnavailable", err)
	}
	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0", model.calls)
	}
	if len(renderer.overlays) != 0 || stats.FramesRead != 0 {
		t.Errorf("rendered %d frames, stats %+v", len(renderer.overlays), stats)
	}
}

func TestRunOpenFailure(t *testing.T) {
	open := func(context.Context) (Source, error) { return nil, errors.New("no device") }
	model := &scriptedModel{script: func(int) ([]entity.RawLandmark, error) { return nil, nil }}

	_, err := newLoop(t, open, model, &recordingRenderer{}, DefaultConfig()).Run(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Run() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestRunFeedbackAndRawFrames(t *testing.T) {
	src := &fakeSource{frames: 3, failErr: errors.New("eof")}
	model := &scriptedModel{script: func(call int) ([]entity.RawLandmark, error) {
		switch call {
		case 1:
			return pose(0.40, 0.40, 0.70, 0.70), nil
		case 2:
			return nil, nil
		default:
			return pose(0.30, 0.40, 0.60, 0.70), nil
		}
	}}
	renderer := &recordingRenderer{}
	cfg := DefaultConfig()
	cfg.StatusLabel = StatusConnected

	stats, err := newLoop(t, src.opener(), model, renderer, cfg).Run(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Run() error = %v, want ErrSourceUnavailable at end of stream", err)
	}

	if len(renderer.overlays) != 3 {
		t.Fatalf("rendered %d frames, want 3", len(renderer.overlays))
	}

	first := renderer.overlays[0]
	if first == nil || first.Feedback != "Excellent posture!" || first.Accuracy != 100 || first.Band != posture.BandGood {
		t.Errorf("first overlay = %+v", first)
	}
	if first.StatusLabel != StatusConnected {
		t.Errorf("status label = %q, want %q", first.StatusLabel, StatusConnected)
	}

	if renderer.overlays[1] != nil {
		t.Errorf("frame without pose got overlay %+v", renderer.overlays[1])
	}

	third := renderer.overlays[2]
	if third == nil || third.Feedback != "Level shoulders | Align hips" || third.Accuracy != 65 || third.Band != posture.BandCaution {
		t.Errorf("third overlay = %+v", third)
	}

	want := Stats{FramesRead: 3, FramesAnalysed: 2, FramesNoPose: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}
}

func TestRunResizesFrames(t *testing.T) {
	src := &fakeSource{frames: 1, failErr: errors.New("eof")}
	model := &scriptedModel{script: func(int) ([]entity.RawLandmark, error) { return nil, nil }}

	_, _ = newLoop(t, src.opener(), model, &recordingRenderer{}, DefaultConfig()).Run(context.Background())

	if model.lastImg == nil {
		t.Fatal("model never called")
	}
	if got := model.lastImg.Bounds().Size(); got != image.Pt(1280, 720) {
		t.Errorf("model frame size = %v, want 1280x720", got)
	}
}

func TestRunSkipsFaultyFrames(t *testing.T) {
	src := &fakeSource{frames: 4, failErr: errors.New("eof")}
	model := &scriptedModel{script: func(call int) ([]entity.RawLandmark, error) {
		switch call {
		case 1:
			return nil, errors.New("model timeout")
		case 2:
			panic("corrupt tensor")
		case 3:
			// shoulders only: the live check cannot run
			raw := pose(0.4, 0.4, 0.7, 0.7)
			return raw[:20], nil
		default:
			return pose(0.4, 0.4, 0.7, 0.7), nil
		}
	}}
	renderer := &recordingRenderer{}

	stats, err := newLoop(t, src.opener(), model, renderer, DefaultConfig()).Run(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Run() error = %v", err)
	}

	want := Stats{FramesRead: 4, FramesAnalysed: 1, FramesSkipped: 3}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if len(renderer.overlays) != 4 {
		t.Fatalf("rendered %d frames, want 4", len(renderer.overlays))
	}
	for i := 0; i < 3; i++ {
		if renderer.overlays[i] != nil {
			t.Errorf("faulty frame %d got overlay %+v", i, renderer.overlays[i])
		}
		if got := renderer.frames[i].Bounds().Size(); got != image.Pt(1280, 720) {
			t.Errorf("faulty frame %d size = %v, want 1280x720", i, got)
		}
	}
	if renderer.overlays[3] == nil {
		t.Error("healthy frame rendered without overlay")
	}
}

func TestRunCancelWhileModelOffline(t *testing.T) {
	src := &fakeSource{frames: 50, failErr: errors.New("eof")}
	model := &scriptedModel{script: func(int) ([]entity.RawLandmark, error) {
		return nil, errors.New("pose sidecar offline")
	}}
	renderer := &recordingRenderer{cancelAfter: 1}

	stats, err := newLoop(t, src.opener(), model, renderer, DefaultConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil on cancel", err)
	}
	if stats.FramesRead != 1 || stats.FramesSkipped != 1 {
		t.Errorf("stats = %+v, want one skipped frame", stats)
	}
	if len(renderer.overlays) != 1 || renderer.overlays[0] != nil {
		t.Errorf("overlays = %v, want one raw frame", renderer.overlays)
	}
	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}
}

func TestRunRendererCancel(t *testing.T) {
	src := &fakeSource{frames: 100}
	model := &scriptedModel{script: func(int) ([]entity.RawLandmark, error) { return pose(0.4, 0.4, 0.7, 0.7), nil }}
	renderer := &recordingRenderer{cancelAfter: 2}

	stats, err := newLoop(t, src.opener(), model, renderer, DefaultConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil on cancel", err)
	}
	if stats.FramesRead != 2 {
		t.Errorf("frames read = %d, want 2", stats.FramesRead)
	}
	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}
}

func TestRunContextCancel(t *testing.T) {
	src := &fakeSource{frames: 100}
	ctx, cancel := context.WithCancel(context.Background())
	model := &scriptedModel{script: func(call int) ([]entity.RawLandmark, error) {
		if call == 3 {
			cancel()
		}
		return nil, nil
	}}

	stats, err := newLoop(t, src.opener(), model, &recordingRenderer{}, DefaultConfig()).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil on cancel", err)
	}
	if stats.FramesRead != 3 {
		t.Errorf("frames read = %d, want 3", stats.FramesRead)
	}
	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}
}

type panickingRenderer struct{}

func (panickingRenderer) Render(context.Context, image.Image, *Overlay) error { panic("display gone") }
func (panickingRenderer) Cancelled() bool                                    { return false }

func TestRunClosesSourceOnPanic(t *testing.T) {
	src := &fakeSource{frames: 5}
	model := &scriptedModel{script: func(int) ([]entity.RawLandmark, error) { return nil, nil }}
	l := newLoop(t, src.opener(), model, panickingRenderer{}, DefaultConfig())

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_, _ = l.Run(context.Background())
	}()

	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}
}

func TestNewLoopValidation(t *testing.T) {
	src := &fakeSource{}
	model := &scriptedModel{}
	r := &recordingRenderer{}

	if _, err := NewLoop(log.NewLogger(), nil, model, r, DefaultConfig()); err == nil {
		t.Error("expected error without opener")
	}
	if _, err := NewLoop(log.NewLogger(), src.opener(), nil, r, DefaultConfig()); err == nil {
		t.Error("expected error without model")
	}
	if _, err := NewLoop(log.NewLogger(), src.opener(), model, r, Config{}); err == nil {
		t.Error("expected error for zero frame size")
	}
}

func TestCheckConnection(t *testing.T) {
	src := &fakeSource{frames: 1}
	frame, err := CheckConnection(context.Background(), src.opener())
	if err != nil || frame == nil {
		t.Fatalf("CheckConnection() = %v, %v", frame, err)
	}
	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}

	broken := &fakeSource{failErr: errors.New("no signal")}
	if _, err := CheckConnection(context.Background(), broken.opener()); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("CheckConnection() error = %v, want ErrSourceUnavailable", err)
	}
	if broken.closes != 1 {
		t.Errorf("closes = %d, want 1", broken.closes)
	}
}

func TestStillImageSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "still.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src, err := OpenStillImage(path)(context.Background())
	if err != nil {
		t.Fatalf("OpenStillImage() error = %v", err)
	}
	img, err := src.Read()
	if err != nil || img.Bounds().Dx() != 10 {
		t.Fatalf("Read() = %v, %v", img, err)
	}
	if _, err := src.Read(); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("second Read() error = %v, want ErrSourceExhausted", err)
	}
	src.Close()
	if _, err := src.Read(); err == nil {
		t.Error("Read() after Close succeeded")
	}

	if _, err := OpenStillImage(filepath.Join(t.TempDir(), "missing.png"))(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunStillImageEndsCleanly(t *testing.T) {
	model := &scriptedModel{script: func(int) ([]entity.RawLandmark, error) { return pose(0.4, 0.4, 0.7, 0.7), nil }}
	renderer := &recordingRenderer{}
	open := func(context.Context) (Source, error) {
		return NewStillSource(image.NewRGBA(image.Rect(0, 0, 32, 32))), nil
	}

	stats, err := newLoop(t, open, model, renderer, DefaultConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil once the image is consumed", err)
	}
	if stats.FramesRead != 1 || model.calls != 1 {
		t.Errorf("stats = %+v, model calls = %d, want a single frame", stats, model.calls)
	}
	if len(renderer.overlays) != 1 || renderer.overlays[0] == nil {
		t.Errorf("overlays = %v, want one analysed frame", renderer.overlays)
	}
}
