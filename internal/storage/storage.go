// Package storage defines the capability sets the server and the admin CLI
// consume. Construction is not part of the contract: callers receive an
// already-built store from whoever owns the configuration.
package storage

import "github.com/rmcloud-dev/rmcloud/internal/domain"

// UserStorage persists user records keyed by email.
type UserStorage interface {
	Create(email domain.Email, password string, isAdmin, sync15 bool) (domain.User, error)
	Get(email domain.Email) (domain.User, error)
	Edit(email domain.Email, password string, isAdmin, sync15 bool) error
	Delete(email domain.Email) error
}

// CodeStorage issues and checks one-time access codes.
type CodeStorage interface {
	Issue(email domain.Email) (string, error)
	Validate(email domain.Email, code string) error
	Remove(email domain.Email, code string) error
	Clean() error
}
