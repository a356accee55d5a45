package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrNoFile             = errors.New("no file uploaded")
	ErrFileTooLarge       = errors.New("file size exceeds limit")
	ErrNotAnImage         = errors.New("file must be an image")
	ErrInvalidImageFormat = errors.New("invalid image format")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadImageFile(file *multipart.FileHeader) (image.Image, []byte, error)
	DecodeImage(data []byte) (image.Image, error)
	DecodeBase64Image(encoded string) (image.Image, []byte, error)
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 10 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	return nil
}

// ReadImageFile validates and decodes an uploaded image, returning the raw
// upload bytes alongside it.
func (u *utils) ReadImageFile(file *multipart.FileHeader) (image.Image, []byte, error) {
	if err := u.ValidateImageFile(file); err != nil {
		return nil, nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}

	img, err := u.DecodeImage(data)
	if err != nil {
		return nil, nil, err
	}

	return img, data, nil
}

func (u *utils) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImageFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}

	return img, nil
}

// DecodeBase64Image accepts raw base64 or a data URL and returns the decoded
// image together with its encoded bytes.
func (u *utils) DecodeBase64Image(encoded string) (image.Image, []byte, error) {
	payload := strings.TrimSpace(encoded)
	if idx := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && idx >= 0 {
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}

	if int64(len(data)) > u.maxFileSize {
		return nil, nil, ErrFileTooLarge
	}

	img, err := u.DecodeImage(data)
	if err != nil {
		return nil, nil, err
	}

	return img, data, nil
}

// ResizeFrame scales img to exactly width x height.
func ResizeFrame(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
