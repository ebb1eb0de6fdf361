package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned by [Decode] when the input is not a structurally
// valid JWT. Callers treat a malformed credential the same as an expired one.
var ErrMalformed = errors.New("malformed token")

// Claims is the decoded, unverified payload of a bearer token. Zero time
// values mean the corresponding claim was absent.
type Claims struct {
	Subject   string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type wireClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode splits and base64/JSON-decodes the payload segment of raw without
// verifying its signature. It never panics; structurally invalid input is
// reported as [ErrMalformed].
func Decode(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrMalformed
	}

	var wc wireClaims
	if _, _, err := parser.ParseUnverified(raw, &wc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims := Claims{
		Subject: wc.Subject,
		UserID:  wc.UserID,
	}
	if wc.IssuedAt != nil {
		claims.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		claims.ExpiresAt = wc.ExpiresAt.Time
	}

	return claims, nil
}

// Expired reports whether the claims are past their expiry at now. Claims
// without an expiry are always expired.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return !c.ExpiresAt.After(now)
}

// Remaining returns the validity left at now, zero when expired.
func (c Claims) Remaining(now time.Time) time.Duration {
	if c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Expired reports whether raw is unusable at now: undecodable, missing its
// expiry, or past it.
func Expired(raw string, now time.Time) bool {
	claims, err := Decode(raw)
	if err != nil {
		return true
	}
	return claims.Expired(now)
}

// NeedsRefresh reports whether raw is still valid at now but its remaining
// validity is strictly below threshold. Undecodable or already expired tokens
// are the [Expired] path and return false here.
func NeedsRefresh(raw string, now time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		return false
	}

	claims, err := Decode(raw)
	if err != nil || claims.Expired(now) {
		return false
	}

	return claims.ExpiresAt.Sub(now) < threshold
}
