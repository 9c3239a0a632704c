package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenTTL = 24 * time.Hour

// SessionTokenService mints and verifies the lightweight interview session
// tokens handed out at start-interview. Clients present them when checking
// for an unfinished interview so the lookup is scoped to their own candidate
// instead of the whole table.
type SessionTokenService struct {
	secret []byte
}

// NewSessionTokenService returns nil when no secret is configured; callers
// then fall back to the unscoped lookup.
func NewSessionTokenService(secret string) *SessionTokenService {
	if secret == "" {
		return nil
	}
	return &SessionTokenService{secret: []byte(secret)}
}

// SessionClaims ties a token to one candidate and interview.
type SessionClaims struct {
	CandidateID string `json:"candidate_id"`
	InterviewID string `json:"interview_id"`
	jwt.RegisteredClaims
}

// Mint signs a session token for a freshly started interview.
func (s *SessionTokenService) Mint(candidateID, interviewID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		CandidateID: candidateID,
		InterviewID: interviewID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Parse validates a session token and returns its claims.
func (s *SessionTokenService) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
