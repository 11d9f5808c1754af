package serverutils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// PurposeSession marks tokens that authenticate API calls. Other tokens signed
// with the same secret (OAuth state) carry a different purpose.
const PurposeSession = "session"

// SessionTokens issues and verifies the HS256 tokens that bind a client to
// an anonymous conversation session.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl}
}

func (t *SessionTokens) Issue(sessionID uuid.UUID) (string, time.Time, error) {
	expiresAt := time.Now().Add(t.ttl)
	claims := jwt.MapClaims{
		"session_id": sessionID.String(),
		"purpose":    PurposeSession,
		"iat":        time.Now().Unix(),
		"exp":        expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

func (t *SessionTokens) Parse(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != PurposeSession {
		return uuid.Nil, ErrInvalidToken
	}
	raw, ok := claims["session_id"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
