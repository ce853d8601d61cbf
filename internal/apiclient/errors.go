package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/civicspot/internal/domain"
)

// maxMessageLen caps the message extracted from a non-JSON error body
const maxMessageLen = 200

// APIError is a non-2xx response from the backend. Body is the response
// payload exactly as received.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    extractMessage(status, body),
		Body:       body,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, domain.ErrUnauthorized) hold for 401 responses.
func (e *APIError) Is(target error) bool {
	return e.StatusCode == http.StatusUnauthorized && target == error(domain.ErrUnauthorized)
}

// Payload returns the backend body when it is JSON, otherwise a
// {"message": ...} object built from Message.
func (e *APIError) Payload() json.RawMessage {
	if len(e.Body) > 0 && json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	data, _ := json.Marshal(map[string]string{"message": e.Message})
	return data
}

func extractMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "{") {
		return http.StatusText(status)
	}
	if len(text) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
