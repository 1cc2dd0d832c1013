package apiclient

import (
	"encoding/json"
	"strings"
)

// RefreshRequest is the body of POST /auth/refresh and POST /auth/logout.
type RefreshRequest struct {
	// RefreshToken is the long-lived credential issued at login.
	// Usage: exchanged for a new access token, or revoked on logout
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is returned from POST /auth/refresh.
type RefreshResponse struct {
	// AccessToken replaces the expired bearer credential.
	// Usage: Include in Authorization header: "Bearer <accessToken>"
	AccessToken string `json:"accessToken"`

	// RefreshToken is only present when the backend rotates refresh tokens.
	// When empty the client keeps the refresh token it already holds.
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ErrorResponse is the backend's error body. Message is a string for most
// failures and a list of strings for validation failures.
type ErrorResponse struct {
	Message    json.RawMessage `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
}

// errorMessage extracts a human readable message from an error body, or ""
// if the body is not a recognised error document.
func errorMessage(body []byte) string {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}

	if len(resp.Message) > 0 {
		var single string
		if err := json.Unmarshal(resp.Message, &single); err == nil {
			return single
		}
		var many []string
		if err := json.Unmarshal(resp.Message, &many); err == nil {
			return strings.Join(many, "; ")
		}
	}
	return resp.Error
}
