package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// SessionPayload is the identity the parent Ansiversa app mints into the shared
// session cookie. Field names follow the parent app's JSON exactly.
type SessionPayload struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	IssuedAt   int64  `json:"issuedAt"`
}

// SessionVerifier checks tokens of the form "<base64url-body>.<base64url-sig>"
// where sig is an HMAC-SHA256 of the body under the platform-wide secret.
type SessionVerifier struct {
	secret []byte
}

func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret)}
}

// Verify returns the decoded payload for a well-formed, correctly signed token
// and nil for anything else. A tampered or garbled cookie is not an error
// condition here; callers treat nil as "not signed in".
func (v *SessionVerifier) Verify(token string) *SessionPayload {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return nil
	}

	expected := v.signature(body)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil
	}

	var payload SessionPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil
	}

	return &payload
}

// Sign produces a token the same way the parent app does. The service itself
// never issues cookies; this exists for tests and local tooling.
func (v *SessionVerifier) Sign(payload SessionPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + v.signature(body), nil
}

func (v *SessionVerifier) signature(body string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
