package localfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v2"

	"github.com/rmcloud-dev/rmcloud/internal/domain"
	internal_errors "github.com/rmcloud-dev/rmcloud/internal/errors"
	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/storage"
)

const profileName = ".userprofile"

// UserStore keeps one directory per user under the data directory, with a
// four-key .userprofile document inside. In-process access goes through an
// RWMutex; mutations additionally hold the data-dir advisory lock so a
// concurrently running admin CLI cannot interleave its writes with ours.
type UserStore struct {
	mu   sync.RWMutex
	dir  string
	lock *flock.Flock
}

var _ storage.UserStorage = (*UserStore)(nil)

func NewUserStore(dir string) (*UserStore, error) {
	dir, err := prepareDataDir(dir)
	if err != nil {
		return nil, err
	}
	return &UserStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

func (s *UserStore) userDir(email domain.Email) string {
	return filepath.Join(s.dir, email.String())
}

func (s *UserStore) profilePath(email domain.Email) string {
	return filepath.Join(s.userDir(email), profileName)
}

func (s *UserStore) Create(email domain.Email, password string, isAdmin, sync15 bool) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return domain.User{}, fmt.Errorf("lock data dir: %w", err)
	}
	defer s.lock.Unlock()

	return s.create(email, password, isAdmin, sync15)
}

// create assumes both locks are held.
func (s *UserStore) create(email domain.Email, password string, isAdmin, sync15 bool) (domain.User, error) {
	logger.Log.Debug("create user", "email", email.String())

	if err := os.MkdirAll(s.userDir(email), 0o700); err != nil {
		return domain.User{}, fmt.Errorf("create user directory: %w", err)
	}

	profile := s.profilePath(email)
	if _, err := os.Stat(profile); err == nil {
		return domain.User{}, internal_errors.ErrUserAlreadyExists
	} else if !os.IsNotExist(err) {
		return domain.User{}, err
	}

	user := domain.User{Email: email, Password: password, IsAdmin: isAdmin, Sync15: sync15}
	if err := writeFileAtomic(profile, marshalProfile(user), 0o600); err != nil {
		return domain.User{}, fmt.Errorf("write %s: %w", profile, err)
	}
	return user, nil
}

func (s *UserStore) Get(email domain.Email) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.profilePath(email))
	if os.IsNotExist(err) {
		return domain.User{}, internal_errors.ErrUserNotFound
	} else if err != nil {
		return domain.User{}, err
	}
	return unmarshalProfile(raw)
}

func (s *UserStore) Delete(email domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer s.lock.Unlock()

	dir := s.userDir(email)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return internal_errors.ErrUserNotFound
	} else if err != nil {
		return err
	}
	logger.Log.Debug("delete user", "email", email.String())
	return os.RemoveAll(dir)
}

// Edit replaces the profile file. A missing user fails at the remove step
// and nothing is created; the surrounding directory is preserved.
func (s *UserStore) Edit(email domain.Email, password string, isAdmin, sync15 bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.profilePath(email)); err != nil {
		if os.IsNotExist(err) {
			return internal_errors.ErrUserNotFound
		}
		return err
	}
	_, err := s.create(email, password, isAdmin, sync15)
	return err
}

// marshalProfile writes the four fields verbatim. Values are not escaped,
// so passwords must not contain newlines.
func marshalProfile(u domain.User) []byte {
	return []byte(fmt.Sprintf("email: %s\npassword: %s\nis_admin: %t\nsync15: %t\n",
		u.Email.String(), u.Password, u.IsAdmin, u.Sync15))
}

func unmarshalProfile(raw []byte) (domain.User, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.User{}, fmt.Errorf("parse userprofile: %w", err)
	}

	emailStr, err := profileString(doc, "email")
	if err != nil {
		return domain.User{}, err
	}
	password, err := profileString(doc, "password")
	if err != nil {
		return domain.User{}, err
	}
	isAdmin, err := profileBool(doc, "is_admin")
	if err != nil {
		return domain.User{}, err
	}
	sync15, err := profileBool(doc, "sync15")
	if err != nil {
		return domain.User{}, err
	}

	email, err := domain.NewEmail(emailStr)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{Email: email, Password: password, IsAdmin: isAdmin, Sync15: sync15}, nil
}

func profileString(doc map[string]interface{}, key string) (string, error) {
	v, ok := doc[key]
	if !ok {
		return "", &internal_errors.ParseError{Key: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", &internal_errors.ParseError{Key: key, Want: "string"}
	}
	return s, nil
}

func profileBool(doc map[string]interface{}, key string) (bool, error) {
	v, ok := doc[key]
	if !ok {
		return false, &internal_errors.ParseError{Key: key}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &internal_errors.ParseError{Key: key, Want: "boolean"}
	}
	return b, nil
}
