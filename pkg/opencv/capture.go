package opencv

import (
	"errors"
	"fmt"
	"image"

	"PoseFeedback/internal/capture"

	"gocv.io/x/gocv"
	"golang.org/x/net/context"
)

// VideoSource reads frames from a camera device or a network stream.
type VideoSource struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
}

// OpenDevice returns an Opener for a local camera by index.
func OpenDevice(index int) capture.Opener {
	return func(context.Context) (capture.Source, error) {
		return open(index)
	}
}

// OpenStream returns an Opener for an RTSP or HTTP stream URL.
func OpenStream(url string) capture.Opener {
	return func(context.Context) (capture.Source, error) {
		return open(url)
	}
}

func open(device interface{}) (*VideoSource, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open video capture %v: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video capture %v did not open", device)
	}

	return &VideoSource{cap: vc, mat: gocv.NewMat()}, nil
}

func (s *VideoSource) Read() (image.Image, error) {
	if ok := s.cap.Read(&s.mat); !ok {
		return nil, errors.New("frame not received")
	}
	if s.mat.Empty() {
		return nil, errors.New("empty frame")
	}

	return s.mat.ToImage()
}

func (s *VideoSource) Close() error {
	matErr := s.mat.Close()
	capErr := s.cap.Close()
	return errors.Join(matErr, capErr)
}
