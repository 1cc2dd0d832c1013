package apitest

import (
	"net/http"
)

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refreshStatus != 0 {
		writeJSONError(w, b.refreshStatus, http.StatusText(b.refreshStatus))
		return
	}

	var body refreshBody
	if err := readJSON(r, &body); err != nil || body.RefreshToken == "" {
		writeJSONError(w, http.StatusBadRequest, []string{"refreshToken should not be empty"})
		return
	}

	userID, ok := b.tokens.refresh[body.RefreshToken]
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access, err := b.tokens.accessToken(userID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]string{"accessToken": access}
	if b.rotateRefresh {
		delete(b.tokens.refresh, body.RefreshToken)
		rotated, err := b.tokens.refreshToken(userID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["refreshToken"] = rotated
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout revokes the refresh token and, when the bearer is still
// valid, the access token too.
func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.logoutCalls.Add(1)

	var body refreshBody
	_ = readJSON(r, &body)

	b.mu.Lock()
	delete(b.tokens.refresh, body.RefreshToken)
	if raw, ok := bearerToken(r); ok {
		if claims, err := b.tokens.verify(raw); err == nil {
			b.tokens.revoke(claims.ID, claims.ExpiresAt.Time)
		}
	}
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u, ok := b.users[userID(r)]
	b.mu.Unlock()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
