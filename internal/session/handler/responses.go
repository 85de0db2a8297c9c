package handler

import (
	"time"

	"kioskgate/internal/session"
	id "kioskgate/pkg/domain"
)

// SessionResponse is the HTTP response for POST /sessions and GET /sessions/{id}.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	State     string    `json:"state"`
	Direction string    `json:"direction"`
	Required  []string  `json:"required_methods"`
	Completed []string  `json:"completed_methods"`
	Awaiting  string    `json:"awaiting_method,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FromSession converts a domain session to an HTTP response.
func FromSession(sess *session.Session) *SessionResponse {
	return &SessionResponse{
		SessionID: sess.ID.String(),
		State:     string(sess.State),
		Direction: sess.Direction.String(),
		Required:  methodStrings(sess.Required),
		Completed: methodStrings(sess.Completed.Sorted()),
		Awaiting:  awaitingString(sess),
		Reason:    sess.DenyReason,
		CreatedAt: sess.CreatedAt,
	}
}

// SubmitResponse is the HTTP response for POST /sessions/{id}/submit.
type SubmitResponse struct {
	SessionID string   `json:"session_id"`
	Status    string   `json:"status"`
	Awaiting  string   `json:"awaiting_method,omitempty"`
	Required  []string `json:"required_methods"`
	Completed []string `json:"completed_methods"`
	Reason    string   `json:"reason,omitempty"`
}

// FromResult converts a domain submit result to an HTTP response.
func FromResult(result *session.SubmitResult) *SubmitResponse {
	return &SubmitResponse{
		SessionID: result.SessionID.String(),
		Status:    string(result.Status),
		Awaiting:  result.Awaiting.String(),
		Required:  methodStrings(result.Required),
		Completed: methodStrings(result.Completed),
		Reason:    result.Reason,
	}
}

func awaitingString(sess *session.Session) string {
	if sess.Terminal() {
		return ""
	}
	return sess.Awaiting.String()
}

func methodStrings(methods []id.MethodKind) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.String()
	}
	return out
}
