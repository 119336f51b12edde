package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/escience/sitebot/internal/domain"
)

const adminTokenPrefix = "sbt_"

// SessionValidator resolves a session token to the admin identity behind it.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (string, error)
}

// TokenSessionValidator accepts a fixed set of admin tokens. Only SHA-256
// hashes are kept in memory.
type TokenSessionValidator struct {
	hashes [][sha256.Size]byte
}

// NewTokenSessionValidator builds a validator from plain tokens. Blank entries are ignored.
func NewTokenSessionValidator(tokens []string) *TokenSessionValidator {
	v := &TokenSessionValidator{}
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		v.hashes = append(v.hashes, sha256.Sum256([]byte(t)))
	}
	return v
}

// ValidateSession returns an identity of the form "admin:<hash prefix>".
func (v *TokenSessionValidator) ValidateSession(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrSessionRequired
	}

	sum := sha256.Sum256([]byte(token))
	matched := 0
	for _, h := range v.hashes {
		matched |= subtle.ConstantTimeCompare(sum[:], h[:])
	}
	if matched != 1 {
		return "", domain.ErrInvalidSession
	}

	return "admin:" + hex.EncodeToString(sum[:4]), nil
}

// GenerateAdminToken returns a new random admin token.
func GenerateAdminToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate admin token", err)
	}
	return adminTokenPrefix + hex.EncodeToString(bytes), nil
}
