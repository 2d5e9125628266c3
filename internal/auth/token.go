package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates the signature does not match the signing key.
	ErrTokenInvalid = errors.New("token signature invalid")
	// ErrTokenMalformed indicates the token structure cannot be parsed.
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims carried by session and reset tokens. Subject holds the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phoneNumber,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256-signed bearer tokens. The signing key
// is injected at construction and can be swapped per process without code
// changes.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	linkTTL    time.Duration
}

// NewTokenManager builds a manager with distinct TTLs for session tokens and
// short-lived link (reset) tokens.
func NewTokenManager(secret string, sessionTTL, linkTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), sessionTTL: sessionTTL, linkTTL: linkTTL}
}

// IssueSession signs a session token identifying the user.
func (m *TokenManager) IssueSession(userID, email, phone string) (string, error) {
	return m.issue(Claims{Email: email, Phone: phone}, userID, m.sessionTTL)
}

// IssueReset signs a short-lived token scoped to the user id only.
func (m *TokenManager) IssueReset(userID string) (string, error) {
	return m.issue(Claims{}, userID, m.linkTTL)
}

func (m *TokenManager) issue(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.Subject = subject
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses the token, checks signature and expiry, and returns its claims.
func (m *TokenManager) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrTokenInvalid
		default:
			return Claims{}, ErrTokenInvalid
		}
	}
	return claims, nil
}
