package handlerUtil

import (
	"PoseFeedback/internal/api/pose"
	"PoseFeedback/pkg/log"
	"PoseFeedback/pkg/posture"
	"PoseFeedback/pkg/response"
	"PoseFeedback/pkg/utils"
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberUtils "github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Handle writes err as a {"detail": ...} body. Input problems map to 4xx;
// anything unrecognised is reported as a 500 with the raw error text.
func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	// Upload errors from pkg/utils
	switch {
	case errors.Is(err, utils.ErrNoFile):
		err = pose.ErrMissingFile
	case errors.Is(err, utils.ErrFileTooLarge):
		err = pose.ErrFileTooLarge
	case errors.Is(err, utils.ErrNotAnImage):
		err = pose.ErrNotAnImage
	case errors.Is(err, utils.ErrInvalidImageFormat):
		err = pose.ErrInvalidImageFormat
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(pose.ErrorResponse{Detail: respErr.Error()})
	}

	// Exercise routing
	if errors.Is(err, posture.ErrUnknownExercise) {
		h.logger.WithFields(fields).Warn("Unknown exercise type")
		return c.Status(fiber.StatusBadRequest).JSON(pose.ErrorResponse{Detail: err.Error()})
	}

	if errors.Is(err, posture.ErrRoutineNotImplemented) {
		h.logger.WithFields(fields).Warn("Exercise routine not implemented")
		return c.Status(fiber.StatusNotImplemented).JSON(pose.ErrorResponse{Detail: err.Error()})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		h.logger.WithFields(fields).Warn("Request rejected")
		return c.Status(fiberErr.Code).JSON(pose.ErrorResponse{Detail: fiberErr.Message})
	}

	h.logger.WithFields(fields).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(pose.ErrorResponse{
		Detail: "Analysis failed: " + err.Error(),
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(pose.ErrorResponse{
		Detail: fiberUtils.StatusMessage(fiber.StatusRequestTimeout),
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
