// Package session issues opaque, unsigned session tokens for the /login
// endpoint. The token is an audit tag only: nothing in the core pipeline
// parses or enforces it.
package session

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

const ttl = time.Hour

// claims is the JSON payload encoded into the token.
type claims struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Token is an issued session token and the fields echoed back to the
// caller alongside it.
type Token struct {
	Value     string
	ExpiresIn int64
}

// Issue builds a new opaque session token for (tenantID, userID), valid
// for one hour from now. The token is base64(json(claims)) — not
// cryptographically signed.
func Issue(now time.Time, tenantID, userID string) (Token, error) {
	issued := now.Unix()
	expires := now.Add(ttl).Unix()

	c := claims{
		TenantID:  tenantID,
		UserID:    userID,
		IssuedAt:  issued,
		ExpiresAt: expires,
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Value:     base64.StdEncoding.EncodeToString(raw),
		ExpiresIn: expires - issued,
	}, nil
}
