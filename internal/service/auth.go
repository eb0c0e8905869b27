package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rmcloud-dev/rmcloud/internal/domain"
	internal_errors "github.com/rmcloud-dev/rmcloud/internal/errors"
	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/storage"
	"github.com/rmcloud-dev/rmcloud/internal/token"
)

type AuthService interface {
	Login(email, code string) (string, error)
	Refresh(jwtStr string) (string, error)
}

type Auth struct {
	users  storage.UserStorage
	codes  storage.CodeStorage
	tokens token.TokenService

	now func() time.Time
}

func NewAuth(users storage.UserStorage, codes storage.CodeStorage, tokens token.TokenService) *Auth {
	return &Auth{users: users, codes: codes, tokens: tokens, now: time.Now}
}

// unauthorized is the single answer to every failed login or refresh. The
// concrete cause is logged at debug level only; the response must not
// reveal whether the email, the code or the token was the problem, so the
// message stays empty and the handler writes a bodyless 401.
func unauthorized() error {
	return &internal_errors.ErrorWithStatusCode{StatusCode: http.StatusUnauthorized}
}

// Login exchanges a one-time code for a session token. It needs BOTH a
// valid non-expired code AND an existing user record. The code is not
// consumed by a successful exchange.
func (a *Auth) Login(emailStr, code string) (string, error) {
	email, err := domain.NewEmail(emailStr)
	if err != nil {
		logger.Log.Debug("login rejected", "reason", err)
		return "", unauthorized()
	}
	if err := a.codes.Validate(email, code); err != nil {
		logger.Log.Debug("login rejected", "email", email.String(), "reason", err)
		return "", unauthorized()
	}
	user, err := a.users.Get(email)
	if err != nil {
		logger.Log.Debug("login rejected", "email", email.String(), "reason", err)
		return "", unauthorized()
	}
	return a.tokens.Mint(user)
}

// Refresh re-mints a session token once its ExpiresAt claim has passed and
// echoes it back unchanged while it is still fresh. Signature errors,
// unusable claims and unknown users all collapse to the same 401.
func (a *Auth) Refresh(jwtStr string) (string, error) {
	claims, err := a.tokens.Verify(jwtStr)
	if err != nil {
		logger.Log.Debug("refresh rejected", "reason", err)
		return "", unauthorized()
	}

	expStr, ok := claims["ExpiresAt"].(string)
	if !ok {
		logger.Log.Debug("refresh rejected", "reason", "ExpiresAt claim missing or not a string")
		return "", unauthorized()
	}
	expires, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		logger.Log.Debug("refresh rejected", "reason", "ExpiresAt claim not a decimal", "value", expStr)
		return "", unauthorized()
	}

	if expires >= a.now().Unix() {
		// still fresh, hand it back as-is
		return jwtStr, nil
	}

	userID, ok := claims["UserID"].(string)
	if !ok {
		logger.Log.Debug("refresh rejected", "reason", "UserID claim missing or not a string")
		return "", unauthorized()
	}
	email, err := domain.NewEmail(userID)
	if err != nil {
		logger.Log.Debug("refresh rejected", "reason", err)
		return "", unauthorized()
	}
	user, err := a.users.Get(email)
	if err != nil {
		logger.Log.Debug("refresh rejected", "email", email.String(), "reason", err)
		return "", unauthorized()
	}
	return a.tokens.Mint(user)
}
