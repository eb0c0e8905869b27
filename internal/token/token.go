// Package token mints and verifies the session tokens handed out after a
// successful code exchange. Tokens are compact HS256 JWTs whose claims are
// all strings, including the three unix timestamps, because that is what
// the tablets expect.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rmcloud-dev/rmcloud/internal/domain"
)

const (
	issuer   = "rmCloud WEB"
	audience = "web"

	// Scopes granted to every session. sync15 is appended per user.
	baseScopes = "intgr screenshare hwcmail:-1 mail:-1"
)

var (
	ErrSignature = errors.New("token signature invalid")
	ErrDecode    = errors.New("token malformed")
)

type TokenService interface {
	Mint(user domain.User) (string, error)
	Verify(tokenStr string) (jwt.MapClaims, error)
}

type JWT struct {
	secret string
	ttl    time.Duration

	// Now is the clock used for the timestamp claims. Tests override it.
	Now func() time.Time

	newBrowserID func() string
}

func New(secret string) *JWT {
	return &JWT{
		secret:       secret,
		ttl:          24 * time.Hour,
		Now:          time.Now,
		newBrowserID: func() string { return uuid.New().String() },
	}
}

// Mint produces a session token for the given user record.
func (j *JWT) Mint(user domain.User) (string, error) {
	scopes := baseScopes
	if user.Sync15 {
		scopes += " sync15"
	}

	// The device treats every claim as text, timestamps included.
	stamp := strconv.FormatInt(j.Now().Add(j.ttl).Unix(), 10)

	claims := jwt.MapClaims{
		"UserID":    user.Email.String(),
		"BrowserID": j.newBrowserID(),
		"Email":     user.Email.String(),
		"Scopes":    scopes,
		"UpdatedAt": stamp,
		"CreatedAt": stamp,
		"ExpiresAt": stamp,
		"Issuer":    issuer,
		"Audience":  audience,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and returns the claim map. Expiry is NOT
// enforced here: ExpiresAt is a plain string claim and the refresh endpoint
// decides what to do with it.
func (j *JWT) Verify(tokenStr string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(j.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrDecode
	}
	return claims, nil
}
