package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"quizard-tools/internal/content"
	"quizard-tools/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

type MockBackendClient struct {
	FetchModuleMaterialsFunc func(ctx context.Context, moduleID, sessionID string) json.RawMessage
	CreateQuizFunc           func(ctx context.Context, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage
	ReviseQuizFunc           func(ctx context.Context, quizID, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage
	CreateAnnouncementFunc   func(ctx context.Context, sessionID, groupID, text, quizID string) json.RawMessage

	createCalls int
	reviseCalls int
}

func (m *MockBackendClient) FetchModuleMaterials(ctx context.Context, moduleID, sessionID string) json.RawMessage {
	if m.FetchModuleMaterialsFunc != nil {
		return m.FetchModuleMaterialsFunc(ctx, moduleID, sessionID)
	}
	panic("MockBackendClient.FetchModuleMaterialsFunc not implemented")
}

func (m *MockBackendClient) CreateQuiz(ctx context.Context, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage {
	m.createCalls++
	if m.CreateQuizFunc != nil {
		return m.CreateQuizFunc(ctx, sessionID, draft, moduleIDs)
	}
	panic("MockBackendClient.CreateQuizFunc not implemented")
}

func (m *MockBackendClient) ReviseQuiz(ctx context.Context, quizID, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage {
	m.reviseCalls++
	if m.ReviseQuizFunc != nil {
		return m.ReviseQuizFunc(ctx, quizID, sessionID, draft, moduleIDs)
	}
	panic("MockBackendClient.ReviseQuizFunc not implemented")
}

func (m *MockBackendClient) CreateAnnouncement(ctx context.Context, sessionID, groupID, text, quizID string) json.RawMessage {
	if m.CreateAnnouncementFunc != nil {
		return m.CreateAnnouncementFunc(ctx, sessionID, groupID, text, quizID)
	}
	panic("MockBackendClient.CreateAnnouncementFunc not implemented")
}

type MockContentReader struct {
	ReadFunc func(ctx context.Context, fileURL string) (content.Result, error)
}

func (m *MockContentReader) Read(ctx context.Context, fileURL string) (content.Result, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, fileURL)
	}
	panic("MockContentReader.ReadFunc not implemented")
}

func intPtr(v int) *int       { return &v }
func fPtr(v float64) *float64 { return &v }

func validDraft() *domain.QuizDraft {
	return &domain.QuizDraft{
		Title:           "Final Exam",
		TotalMarks:      5,
		DurationMinutes: 45,
		StartAt:         "2024-12-15T09:00:00Z",
		EndAt:           "2024-12-15T12:00:00Z",
		Questions: []domain.Question{
			{
				Text:               "Pick A",
				Options:            []string{"A", "B", "C", "D"},
				CorrectOptionIndex: intPtr(0),
				Point:              fPtr(5),
			},
		},
	}
}

func TestCreateQuiz_InvalidDraftSkipsBackend(t *testing.T) {
	backend := &MockBackendClient{}
	svc := NewQuizToolService(backend, &MockContentReader{})

	draft := validDraft()
	draft.Title = ""

	payload, result := svc.CreateQuiz(context.Background(), "sess_1", draft, nil)
	assert.Nil(t, payload)
	assert.False(t, result.Valid)
	assert.Equal(t, 0, backend.createCalls, "invalid draft must never reach the backend")
}

func TestCreateQuiz_ValidDraftReachesBackend(t *testing.T) {
	backend := &MockBackendClient{
		CreateQuizFunc: func(ctx context.Context, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage {
			assert.Equal(t, "sess_1", sessionID)
			assert.Equal(t, []string{"mod_1"}, moduleIDs)
			return json.RawMessage(`{"success":true,"quiz_id":"quiz_1"}`)
		},
	}
	svc := NewQuizToolService(backend, &MockContentReader{})

	payload, result := svc.CreateQuiz(context.Background(), "sess_1", validDraft(), []string{"mod_1"})
	require.True(t, result.Valid)
	assert.JSONEq(t, `{"success":true,"quiz_id":"quiz_1"}`, string(payload))
	assert.Equal(t, 1, backend.createCalls)
}

func TestReviseQuiz_ValidationGateApplies(t *testing.T) {
	backend := &MockBackendClient{
		ReviseQuizFunc: func(ctx context.Context, quizID, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage {
			assert.Equal(t, "quiz_9", quizID)
			return json.RawMessage(`{"success":true,"message":"updated"}`)
		},
	}
	svc := NewQuizToolService(backend, &MockContentReader{})

	invalid := validDraft()
	invalid.Questions = nil
	payload, result := svc.ReviseQuiz(context.Background(), "quiz_9", "sess_1", invalid, nil)
	assert.Nil(t, payload)
	assert.False(t, result.Valid)
	assert.Equal(t, 0, backend.reviseCalls)

	payload, result = svc.ReviseQuiz(context.Background(), "quiz_9", "sess_1", validDraft(), nil)
	assert.True(t, result.Valid)
	assert.NotNil(t, payload)
	assert.Equal(t, 1, backend.reviseCalls)
}

func TestReadContent_DegradesToErrorString(t *testing.T) {
	reader := &MockContentReader{
		ReadFunc: func(ctx context.Context, fileURL string) (content.Result, error) {
			return content.Result{}, errors.New("object bucket1/missing.pdf not found")
		},
	}
	svc := NewQuizToolService(&MockBackendClient{}, reader)

	text := svc.ReadContent(context.Background(), "gs://bucket1/missing.pdf")
	assert.True(t, strings.HasPrefix(text, "Error reading file: "), "read must degrade, not fail: %q", text)
}

func TestReadContent_PassesTextThrough(t *testing.T) {
	reader := &MockContentReader{
		ReadFunc: func(ctx context.Context, fileURL string) (content.Result, error) {
			return content.Result{Text: "chapter one", Outcome: content.OutcomeExtracted}, nil
		},
	}
	svc := NewQuizToolService(&MockBackendClient{}, reader)

	assert.Equal(t, "chapter one", svc.ReadContent(context.Background(), "gs://bucket1/ch1.pdf"))
}

func TestValidateQuiz_DelegatesToDomain(t *testing.T) {
	svc := NewQuizToolService(&MockBackendClient{}, &MockContentReader{})
	result := svc.ValidateQuiz(&domain.QuizDraft{})
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestAnnounce_PassesThrough(t *testing.T) {
	backend := &MockBackendClient{
		CreateAnnouncementFunc: func(ctx context.Context, sessionID, groupID, text, quizID string) json.RawMessage {
			assert.Equal(t, "grp_1", groupID)
			return json.RawMessage(`{"success":true,"announcement_id":"ann_1","notified_students":45}`)
		},
	}
	svc := NewQuizToolService(backend, &MockContentReader{})

	payload := svc.Announce(context.Background(), "sess_1", "grp_1", "New quiz!", "quiz_1")
	assert.Contains(t, string(payload), "ann_1")
}
