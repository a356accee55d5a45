package poseHandler

import (
	"PoseFeedback/internal/api/pose"
	"PoseFeedback/internal/entity"
	contextPkg "PoseFeedback/pkg/context"
	"PoseFeedback/pkg/handlerUtil"
	"PoseFeedback/pkg/log"
	"PoseFeedback/pkg/posture"
	"image"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *PoseHandler) AnalyzePose(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	kind, err := posture.ParseExerciseKind(ctx.Query("exercise"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_exercise")
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		file, err = ctx.FormFile("image")
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, pose.ErrMissingFile, ctx.Path(), "read_form_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
		"exercise":   kind.String(),
	}).Debug("Processing pose upload")

	img, data, err := h.utils.ReadImageFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
	}

	return h.analyze(ctx, img, data, kind)
}

func (h *PoseHandler) AnalyzePoseBase64(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	kind, err := posture.ParseExerciseKind(ctx.Query("exercise"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_exercise")
	}

	var req pose.AnalyzeBase64Request
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, pose.ErrMissingImageField, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.Handle(ctx, requestID, pose.ErrMissingImageField, ctx.Path(), "validate_request")
	}

	img, data, err := h.utils.DecodeBase64Image(req.Image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "decode_base64_image")
	}

	return h.analyze(ctx, img, data, kind)
}

func (h *PoseHandler) analyze(ctx *fiber.Ctx, img image.Image, data []byte, kind posture.ExerciseKind) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	result, err := h.poseService.AnalyzeImage(c, img, data, kind)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "analyze_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.logResult(requestID, ctx.Path(), result)
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *PoseHandler) logResult(requestID, path string, result *entity.AnalysisResult) {
	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       path,
		"success":    result.Success,
		"accuracy":   result.Accuracy,
	}).Info("Pose analysis completed")
}
