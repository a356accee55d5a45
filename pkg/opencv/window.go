package opencv

import (
	"fmt"
	"image"
	"image/color"

	"PoseFeedback/internal/capture"
	"PoseFeedback/pkg/posture"

	"gocv.io/x/gocv"
	"golang.org/x/net/context"
)

var (
	bandColors = map[posture.Band]color.RGBA{
		posture.BandGood:    {G: 255, A: 255},
		posture.BandCaution: {R: 255, G: 165, A: 255},
		posture.BandPoor:    {R: 255, A: 255},
	}
	white     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	green     = color.RGBA{G: 255, A: 255}
	jointBlue = color.RGBA{B: 255, A: 255}
)

// WindowRenderer shows frames in a desktop window and reports cancellation
// when the cancel key is pressed.
type WindowRenderer struct {
	window    *gocv.Window
	cancelKey int
	cancelled bool
}

func NewWindowRenderer(name string, cancelKey byte) *WindowRenderer {
	window := gocv.NewWindow(name)
	window.ResizeWindow(1280, 720)
	return &WindowRenderer{window: window, cancelKey: int(cancelKey)}
}

func (r *WindowRenderer) Render(_ context.Context, frame image.Image, overlay *capture.Overlay) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	if overlay != nil {
		drawOverlay(&mat, overlay)
	}

	r.window.IMShow(mat)
	if key := r.window.WaitKey(1); key >= 0 && key&0xFF == r.cancelKey {
		r.cancelled = true
	}

	return nil
}

func (r *WindowRenderer) Cancelled() bool {
	return r.cancelled
}

func (r *WindowRenderer) Close() error {
	return r.window.Close()
}

func drawOverlay(mat *gocv.Mat, overlay *capture.Overlay) {
	w, h := mat.Cols(), mat.Rows()

	for _, lm := range overlay.Landmarks {
		pt := image.Pt(int(lm.X*float64(w)), int(lm.Y*float64(h)))
		gocv.Circle(mat, pt, 3, jointBlue, -1)
	}

	gocv.PutText(mat, overlay.Feedback, image.Pt(50, 50), gocv.FontHersheySimplex, 0.8, bandColors[overlay.Band], 2)
	gocv.PutText(mat, fmt.Sprintf("Accuracy: %d%%", overlay.Accuracy), image.Pt(50, 90), gocv.FontHersheySimplex, 0.8, white, 2)

	if overlay.StatusLabel != "" {
		gocv.PutText(mat, overlay.StatusLabel, image.Pt(50, h-50), gocv.FontHersheySimplex, 0.6, green, 2)
	}
}
