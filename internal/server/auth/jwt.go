// Package auth implements the bearer session-token contract: issuing HS256
// JWTs and validating presented tokens against the issuer, expiry, and
// issue-time-window predicates. Validation is a pure function of the token
// and the clock; no server-side session state exists.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clione/sikre/internal/common"
)

// Authenticator validates bearer tokens for a single site domain.
type Authenticator struct {
	siteDomain    string
	secret        []byte
	sessionWindow time.Duration

	// now is the clock; overridable in tests.
	now func() time.Time
}

func NewAuthenticator(siteDomain string, secret []byte, sessionWindow time.Duration) *Authenticator {
	return &Authenticator{
		siteDomain:    siteDomain,
		secret:        secret,
		sessionWindow: sessionWindow,
		now:           time.Now,
	}
}

// IssueToken produces a signed session token for userID with iss set to the
// site domain, iat set to now, and exp set to now+validity.
func (a *Authenticator) IssueToken(userID string, validity time.Duration) (string, error) {
	now := a.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    a.siteDomain,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken checks the presented token and returns the subject user id.
//
// The token is rejected when any of the following holds:
//   - the signature is invalid or the token is malformed,
//   - iss differs from the configured site domain,
//   - exp is not strictly greater than the current Unix timestamp,
//   - iat is not strictly greater than now minus the session window
//     (a stale token is rejected no matter how distant its stated expiry).
func (a *Authenticator) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	// All temporal predicates are evaluated below against a single "now";
	// the library's own validation is disabled so the strict comparisons
	// stay in one place.
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", common.ErrInvalidToken
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	if claims.Issuer != a.siteDomain {
		return "", common.ErrInvalidToken
	}

	now := a.now()

	if claims.ExpiresAt == nil || claims.ExpiresAt.Unix() <= now.Unix() {
		return "", common.ErrTokenExpired
	}

	windowStart := now.Add(-a.sessionWindow)
	if claims.IssuedAt == nil || claims.IssuedAt.Unix() <= windowStart.Unix() {
		return "", common.ErrTokenExpired
	}

	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
