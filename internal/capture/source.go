package capture

import (
	"errors"
	"fmt"
	"image"
	"os"

	"PoseFeedback/pkg/utils"

	"golang.org/x/net/context"
)

var (
	// ErrSourceUnavailable means the video source could not be opened or
	// stopped delivering frames. It ends the loop.
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrSourceExhausted means a finite source has delivered all its frames.
	ErrSourceExhausted = errors.New("video source exhausted")

	// ErrAnalysisFault marks a single frame whose analysis failed. The loop
	// logs it and moves on.
	ErrAnalysisFault = errors.New("frame analysis fault")
)

// Source delivers frames until Read fails. Close releases the device.
type Source interface {
	Read() (image.Image, error)
	Close() error
}

// Opener acquires a Source. The loop calls it exactly once per run.
type Opener func(ctx context.Context) (Source, error)

// StillSource delivers one decoded image once, then reports
// ErrSourceExhausted.
type StillSource struct {
	img    image.Image
	served bool
	closed bool
}

func NewStillSource(img image.Image) *StillSource {
	return &StillSource{img: img}
}

// OpenStillImage returns an Opener that decodes the image file at path.
func OpenStillImage(path string) Opener {
	return func(context.Context) (Source, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", path, err)
		}
		img, err := utils.New().DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", path, err)
		}
		return NewStillSource(img), nil
	}
}

func (s *StillSource) Read() (image.Image, error) {
	if s.closed {
		return nil, errors.New("still source closed")
	}
	if s.served {
		return nil, ErrSourceExhausted
	}
	s.served = true
	return s.img, nil
}

func (s *StillSource) Close() error {
	s.closed = true
	return nil
}
