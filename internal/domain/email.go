package domain

import (
	"fmt"
	"regexp"

	internal_errors "github.com/rmcloud-dev/rmcloud/internal/errors"
)

// Addresses are matched case-sensitively against lowercase. Input is not
// lowercased here; callers that want case folding do it themselves.
var emailRe = regexp.MustCompile(`^([a-z0-9_+]([a-z0-9_+.]*[a-z0-9_+])?)@([a-z0-9]+([-.][a-z0-9]+)*\.[a-z]{2,6})$`)

// Email is a validated address used as an opaque store key. Compare with ==.
type Email struct {
	addr string
}

func NewEmail(s string) (Email, error) {
	if !emailRe.MatchString(s) {
		return Email{}, fmt.Errorf("%q: %w", s, internal_errors.ErrInvalidEmail)
	}
	return Email{addr: s}, nil
}

func (e Email) String() string {
	return e.addr
}
