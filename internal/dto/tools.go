// Package dto defines the request and response shapes of the tool surface.
// These are the structured-parameter contracts; semantic quiz rules live in
// the domain validator, the tags here only gate request shape.
package dto

import "quizard-tools/internal/domain"

// MaterialsRequest asks for the required materials of one module.
type MaterialsRequest struct {
	ModuleID  string `json:"module_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// ReadContentRequest asks for the extracted text of one material.
type ReadContentRequest struct {
	FileURL   string `json:"file_url" validate:"required,uri"`
	SessionID string `json:"session_id" validate:"required"`
}

// ReadContentResponse carries the materialized text. The content field holds
// degraded text or an inline error string on failure; this endpoint never
// errors past the handler.
type ReadContentResponse struct {
	Content string `json:"content"`
}

// QuizRequest is the body for create and revise. The draft travels under
// quiz_details, matching the backend wire contract. The draft itself is not
// shape-checked here: the domain validator owns every quiz rule and reports
// an itemized list instead of a single tag failure.
type QuizRequest struct {
	QuizDetails domain.QuizDraft `json:"quiz_details"`
	ModuleIDs   []string         `json:"module_ids" validate:"omitempty,dive,required"`
	SessionID   string           `json:"session_id" validate:"required"`
}

// AnnouncementRequest posts a group feed announcement, optionally linked to
// a quiz.
type AnnouncementRequest struct {
	GroupID   string `json:"group_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	QuizID    string `json:"quiz_id,omitempty"`
	SessionID string `json:"session_id" validate:"required"`
}

// QuizValidationFailure is returned when a draft fails the rule battery
// before any backend effect.
type QuizValidationFailure struct {
	Success   bool     `json:"success"`
	ErrorCode string   `json:"error_code"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// NewQuizValidationFailure builds the rejection body from a validation result.
func NewQuizValidationFailure(result *domain.ValidationResult) QuizValidationFailure {
	return QuizValidationFailure{
		Success:   false,
		ErrorCode: string(domain.CodeQuizValidationFailed),
		Message:   "Quiz validation failed; correct the listed errors and resubmit the complete document",
		Errors:    result.Errors,
		Warnings:  result.Warnings,
	}
}
