// Package backend holds the request orchestrator: every logical operation
// maps to exactly one authenticated call against the classroom service, and
// every transport or HTTP failure is normalized into a uniform
// success:false envelope instead of an error. Callers branch on the
// envelope, never on exceptions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quizard-tools/internal/adapter/auth"
	"quizard-tools/internal/config"
	"quizard-tools/internal/domain"

	"go.uber.org/zap"
)

const (
	// unreachableMessage is the human-safe text carried by every failure
	// envelope; the raw cause goes to the log and the truncated details
	// field only.
	unreachableMessage = "Unable to reach the classroom service right now. Please try again shortly."

	// maxDetailBytes bounds the diagnostic body copied into an envelope.
	maxDetailBytes = 512
)

// FailureEnvelope is the normalized shape returned for any failed backend
// interaction.
type FailureEnvelope struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// Client issues authenticated requests to the classroom service.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenProvider
	signer  *auth.SessionSigner
	logger  *zap.Logger
}

// NewClient creates a Client for the configured backend. The HTTP client
// carries the configured timeout; there is no other cancellation point on
// the backend path.
func NewClient(cfg config.BackendConfig, tokens auth.TokenProvider, signer *auth.SessionSigner, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		signer:  signer,
		logger:  log,
	}
}

// FetchModuleMaterials retrieves the required materials of one module.
// Read-only and idempotent; safe to retry.
func (c *Client) FetchModuleMaterials(ctx context.Context, moduleID, sessionID string) json.RawMessage {
	endpoint := "/api/v1/materials/module/" + url.PathEscape(moduleID)
	return c.do(ctx, http.MethodGet, endpoint, sessionID, nil)
}

// CreateQuiz submits a finalized draft. Not idempotent: repeated calls
// create duplicate quizzes, so callers must not retry blindly.
func (c *Client) CreateQuiz(ctx context.Context, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage {
	return c.do(ctx, http.MethodPost, "/api/v1/quizzes/from-details", sessionID, quizPayload(draft, moduleIDs))
}

// ReviseQuiz replaces a stored quiz wholesale with the supplied draft.
// Idempotent replace-by-id.
func (c *Client) ReviseQuiz(ctx context.Context, quizID, sessionID string, draft *domain.QuizDraft, moduleIDs []string) json.RawMessage {
	endpoint := "/api/v1/quizzes/" + url.PathEscape(quizID)
	return c.do(ctx, http.MethodPut, endpoint, sessionID, quizPayload(draft, moduleIDs))
}

// CreateAnnouncement posts a group feed announcement, optionally linked to a
// quiz. Should be invoked at most once per successful create/revise.
func (c *Client) CreateAnnouncement(ctx context.Context, sessionID, groupID, text, quizID string) json.RawMessage {
	body := map[string]interface{}{
		"text":  text,
		"group": groupID,
	}
	if quizID != "" {
		body["quiz"] = quizID
	}
	return c.do(ctx, http.MethodPost, "/api/v1/announcements/create", sessionID, body)
}

// quizPayload wraps the draft under the quiz_details key the backend
// expects, with the linked module identifiers inside the document.
func quizPayload(draft *domain.QuizDraft, moduleIDs []string) map[string]interface{} {
	wrapped := *draft
	wrapped.ModuleIDs = moduleIDs
	return map[string]interface{}{"quiz_details": &wrapped}
}

// do performs one authenticated request. On success the raw response
// payload is returned unmodified for the caller to interpret; any failure
// is folded into a FailureEnvelope.
func (c *Client) do(ctx context.Context, method, endpoint, sessionID string, body interface{}) json.RawMessage {
	serviceToken, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("service credential fetch failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return failure(domain.CodeCredentialFetch, unreachableMessage, "")
	}

	sessionToken, err := c.signer.Sign(sessionID)
	if err != nil {
		c.logger.Error("session token signing failed", zap.Error(err))
		return failure(domain.CodeCredentialFetch, unreachableMessage, "")
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			c.logger.Error("request body encoding failed", zap.Error(err))
			return failure(domain.CodeInternal, unreachableMessage, "")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		c.logger.Error("request construction failed", zap.Error(err))
		return failure(domain.CodeInternal, unreachableMessage, "")
	}
	req.Header.Set("authentication-service", "Bearer "+serviceToken)
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	req.Header.Set("Session-ID", sessionID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("backend request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return failure(domain.CodeBackendRequestFailed, unreachableMessage, "")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("backend response read failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return failure(domain.CodeBackendRequestFailed, unreachableMessage, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("backend returned non-2xx status",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return failure(domain.CodeBackendRequestFailed, unreachableMessage, truncate(payload))
	}

	return payload
}

func failure(code domain.ErrorCode, message, details string) json.RawMessage {
	encoded, _ := json.Marshal(FailureEnvelope{
		Success:   false,
		ErrorCode: string(code),
		Message:   message,
		Details:   details,
	})
	return encoded
}

func truncate(payload []byte) string {
	if len(payload) > maxDetailBytes {
		return string(payload[:maxDetailBytes])
	}
	return string(payload)
}
