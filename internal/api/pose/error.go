package pose

import (
	"PoseFeedback/pkg/response"
	"net/http"
)

var (
	ErrMissingFile        = response.NewError(http.StatusBadRequest, "Missing image file")
	ErrMissingImageField  = response.NewError(http.StatusBadRequest, "Missing 'image' field")
	ErrNotAnImage         = response.NewError(http.StatusBadRequest, "File must be an image")
	ErrInvalidImageFormat = response.NewError(http.StatusBadRequest, "Invalid image format")
	ErrFileTooLarge       = response.NewError(http.StatusRequestEntityTooLarge, "File too large")
)
