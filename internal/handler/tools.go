// Package handler exposes the tool surface consumed by the orchestrating
// agent. Handlers stay thin: shape-check the request, call the service,
// pass backend payloads through untouched.
package handler

import (
	"errors"
	"fmt"

	"quizard-tools/internal/domain"
	"quizard-tools/internal/dto"
	"quizard-tools/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ToolsHandler handles tool invocations over HTTP
type ToolsHandler struct {
	service  service.QuizToolService
	validate *validator.Validate
}

// NewToolsHandler creates a new ToolsHandler instance
func NewToolsHandler(svc service.QuizToolService) *ToolsHandler {
	return &ToolsHandler{
		service:  svc,
		validate: validator.New(),
	}
}

// GetMaterials handles POST /tools/materials
func (h *ToolsHandler) GetMaterials(c *fiber.Ctx) error {
	var req dto.MaterialsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid JSON body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return toFieldErrors(err)
	}

	payload := h.service.GetModuleMaterials(c.Context(), req.ModuleID, req.SessionID)
	return sendRaw(c, payload)
}

// ReadContent handles POST /tools/content. It never surfaces a read failure
// as an HTTP error: an unreadable file yields an inline error string in the
// content field, scoped to that one material.
func (h *ToolsHandler) ReadContent(c *fiber.Ctx) error {
	var req dto.ReadContentRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid JSON body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return toFieldErrors(err)
	}

	text := h.service.ReadContent(c.Context(), req.FileURL)
	return c.JSON(dto.ReadContentResponse{Content: text})
}

// ValidateQuiz handles POST /tools/validate
func (h *ToolsHandler) ValidateQuiz(c *fiber.Ctx) error {
	var draft domain.QuizDraft
	if err := c.BodyParser(&draft); err != nil {
		return domain.NewInvalidInputError("Invalid JSON body")
	}

	return c.JSON(h.service.ValidateQuiz(&draft))
}

// CreateQuiz handles POST /tools/quizzes. Validation runs inline; an
// invalid draft is rejected before any backend effect.
func (h *ToolsHandler) CreateQuiz(c *fiber.Ctx) error {
	var req dto.QuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid JSON body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return toFieldErrors(err)
	}

	payload, result := h.service.CreateQuiz(c.Context(), req.SessionID, &req.QuizDetails, req.ModuleIDs)
	if !result.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewQuizValidationFailure(result))
	}
	return sendRaw(c, payload)
}

// ReviseQuiz handles PUT /tools/quizzes/:quizId. A revision supplies the
// complete document; the stored quiz is replaced wholesale.
func (h *ToolsHandler) ReviseQuiz(c *fiber.Ctx) error {
	quizID := c.Params("quizId")
	if quizID == "" {
		return domain.NewInvalidInputError("quizId is required")
	}

	var req dto.QuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid JSON body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return toFieldErrors(err)
	}

	payload, result := h.service.ReviseQuiz(c.Context(), quizID, req.SessionID, &req.QuizDetails, req.ModuleIDs)
	if !result.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewQuizValidationFailure(result))
	}
	return sendRaw(c, payload)
}

// Announce handles POST /tools/announcements
func (h *ToolsHandler) Announce(c *fiber.Ctx) error {
	var req dto.AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid JSON body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return toFieldErrors(err)
	}

	payload := h.service.Announce(c.Context(), req.SessionID, req.GroupID, req.Text, req.QuizID)
	return sendRaw(c, payload)
}

// sendRaw forwards a backend payload without reinterpreting it; the agent
// branches on its success field.
func sendRaw(c *fiber.Ctx, payload []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

// toFieldErrors converts validator failures into the domain shape handled
// by the error middleware.
func toFieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(domain.FieldErrors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, domain.NewFieldError(fe.Field(), fmt.Sprintf("failed on the '%s' rule", fe.Tag())))
		}
		return out
	}
	return domain.FieldErrors{domain.NewFieldError("body", err.Error())}
}
