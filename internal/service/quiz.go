package service

import (
	"context"
	"encoding/json"
	"fmt"

	"quizard-tools/internal/content"
	"quizard-tools/internal/domain"
	"quizard-tools/internal/logger"

	"go.uber.org/zap"
)

// ContentReader materializes a content reference into tagged text.
type ContentReader interface {
	Read(ctx context.Context, fileURL string) (content.Result, error)
}

// BackendClient is the orchestrator port: one outbound authenticated call
// per logical operation, failures already folded into envelopes.
type BackendClient interface {
	FetchModuleMaterials(ctx context.Context, moduleID, sessionID string) json.RawMessage
	CreateQuiz(ctx context.Context, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage
	ReviseQuiz(ctx context.Context, quizID, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage
	CreateAnnouncement(ctx context.Context, sessionID, groupID, text, quizID string) json.RawMessage
}

// QuizToolService is the logic behind the tool surface: validation runs
// locally and gates every write; reads pass backend payloads through
// unmodified.
type QuizToolService interface {
	GetModuleMaterials(ctx context.Context, moduleID, sessionID string) json.RawMessage
	ReadContent(ctx context.Context, fileURL string) string
	ValidateQuiz(draft *domain.QuizDraft) *domain.ValidationResult
	CreateQuiz(ctx context.Context, sessionID string, draft *domain.QuizDraft, moduleIDs []string) (json.RawMessage, *domain.ValidationResult)
	ReviseQuiz(ctx context.Context, quizID, sessionID string, draft *domain.QuizDraft, moduleIDs []string) (json.RawMessage, *domain.ValidationResult)
	Announce(ctx context.Context, sessionID, groupID, text, quizID string) json.RawMessage
}

type quizToolService struct {
	backend BackendClient
	reader  ContentReader
}

// NewQuizToolService creates a new instance of quizToolService.
func NewQuizToolService(backend BackendClient, reader ContentReader) QuizToolService {
	return &quizToolService{
		backend: backend,
		reader:  reader,
	}
}

// GetModuleMaterials is read-only and idempotent; the payload (or failure
// envelope) is returned as-is for the agent to interpret.
func (s *quizToolService) GetModuleMaterials(ctx context.Context, moduleID, sessionID string) json.RawMessage {
	return s.backend.FetchModuleMaterials(ctx, moduleID, sessionID)
}

// ReadContent never fails past this boundary: an unreadable material
// degrades to an inline error string scoped to that one file, so a single
// bad material cannot abort the broader workflow.
func (s *quizToolService) ReadContent(ctx context.Context, fileURL string) string {
	result, err := s.reader.Read(ctx, fileURL)
	if err != nil {
		logger.Get().Warn("content read failed",
			zap.String("file_url", fileURL),
			zap.Error(err),
		)
		return fmt.Sprintf("Error reading file: %v", err)
	}
	if result.Outcome == content.OutcomeSanitized {
		logger.Get().Warn("content decoded with replacement characters",
			zap.String("file_url", fileURL),
		)
	}
	return result.Text
}

// ValidateQuiz is pure and performs no network effect.
func (s *quizToolService) ValidateQuiz(draft *domain.QuizDraft) *domain.ValidationResult {
	return domain.Validate(draft)
}

// CreateQuiz validates the draft before any backend effect. An invalid
// draft is rejected locally with the itemized result and a nil payload;
// the backend is only reached with a draft that passed the full battery.
func (s *quizToolService) CreateQuiz(ctx context.Context, sessionID string, draft *domain.QuizDraft, moduleIDs []string) (json.RawMessage, *domain.ValidationResult) {
	result := domain.Validate(draft)
	if !result.Valid {
		return nil, result
	}
	return s.backend.CreateQuiz(ctx, sessionID, draft, moduleIDs), result
}

// ReviseQuiz replaces the stored quiz wholesale; the same validation gate
// applies as for create.
func (s *quizToolService) ReviseQuiz(ctx context.Context, quizID, sessionID string, draft *domain.QuizDraft, moduleIDs []string) (json.RawMessage, *domain.ValidationResult) {
	result := domain.Validate(draft)
	if !result.Valid {
		return nil, result
	}
	return s.backend.ReviseQuiz(ctx, quizID, sessionID, draft, moduleIDs), result
}

// Announce posts the student-facing notification for an already persisted
// quiz.
func (s *quizToolService) Announce(ctx context.Context, sessionID, groupID, text, quizID string) json.RawMessage {
	return s.backend.CreateAnnouncement(ctx, sessionID, groupID, text, quizID)
}
