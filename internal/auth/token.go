package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// CredentialManager signs and parses session credentials. A credential only
// names a session; the session row decides whether it is still active.
type CredentialManager struct {
	secret []byte
	now    func() time.Time
}

// NewCredentialManager builds a new manager. now may be nil.
func NewCredentialManager(secret string, now func() time.Time) *CredentialManager {
	if now == nil {
		now = time.Now
	}
	return &CredentialManager{secret: []byte(secret), now: now}
}

// Claims describes the credential payload.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issue signs a credential for the session.
func (cm *CredentialManager) Issue(sessionID, userID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cm.secret)
}

// Parse validates signature and expiry and returns claims.
func (cm *CredentialManager) Parse(credential string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return cm.secret, nil
	}, jwt.WithTimeFunc(cm.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid credential claims")
	}
	return claims, nil
}
