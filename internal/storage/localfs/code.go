package localfs

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v2"

	"github.com/rmcloud-dev/rmcloud/internal/domain"
	internal_errors "github.com/rmcloud-dev/rmcloud/internal/errors"
	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/storage"
)

const (
	codesFileName = ".codes"

	codeLength  = 8
	codeCharset = "abcdefghijklmnopqrstuvwxyz"
	codeTTL     = 3 * time.Hour
)

// CodeEntry is one issued code with its expiry.
type CodeEntry struct {
	Code      string
	ExpiresAt time.Time
}

// CodeStore keeps every issued code in memory and rewrites the whole
// .codes file on any mutation. Mutations work on a copied map and swap it
// in only after the flush succeeded, so a failed write leaves the
// in-memory state at the pre-update value.
type CodeStore struct {
	mu   sync.RWMutex
	file string
	lock *flock.Flock

	// Now is the clock used for issue, validate and clean. Tests override it.
	Now   func() time.Time
	codes map[string][]CodeEntry
}

var _ storage.CodeStorage = (*CodeStore)(nil)

// NewCodeStore loads the code file from the data directory. A missing file
// starts the store empty; a malformed one is a startup error.
func NewCodeStore(dir string) (*CodeStore, error) {
	dir, err := prepareDataDir(dir)
	if err != nil {
		return nil, err
	}

	s := &CodeStore{
		file: filepath.Join(dir, codesFileName),
		lock: flock.New(filepath.Join(dir, lockFileName)),
		Now:  time.Now,
	}

	raw, err := os.ReadFile(s.file)
	if os.IsNotExist(err) {
		s.codes = make(map[string][]CodeEntry)
		return s, nil
	} else if err != nil {
		return nil, err
	}

	s.codes, err = unmarshalCodes(raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.file, err)
	}
	return s, nil
}

// Issue generates a fresh code for the email and persists it. It does not
// check that the email belongs to a known user: issuing is admin-driven
// and login requires the user record anyway.
func (s *CodeStore) Issue(email domain.Email) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	entry := CodeEntry{Code: code, ExpiresAt: s.Now().UTC().Add(codeTTL)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return "", fmt.Errorf("lock data dir: %w", err)
	}
	defer s.lock.Unlock()

	next := s.clone()
	key := email.String()
	next[key] = append(next[key], entry)
	if err := s.persist(next); err != nil {
		return "", err
	}
	s.codes = next

	logger.Log.Debug("issued access code", "email", key, "expires_at", entry.ExpiresAt)
	return code, nil
}

// Validate is read-only: a successfully validated code stays in the store
// and remains usable until it expires or someone removes it.
func (s *CodeStore) Validate(email domain.Email, presented string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.codes[email.String()]
	if !ok {
		return internal_errors.ErrUserNotFound
	}
	for _, e := range entries {
		if e.Code != presented {
			continue
		}
		if e.ExpiresAt.Before(s.Now()) {
			return internal_errors.ErrCodeExpired
		}
		return nil
	}
	return internal_errors.ErrCodeNotValid
}

// Remove drops every entry for the email whose code matches.
func (s *CodeStore) Remove(email domain.Email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer s.lock.Unlock()

	next := s.clone()
	key := email.String()
	kept := next[key][:0]
	for _, e := range next[key] {
		if e.Code != code {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(next, key)
	} else {
		next[key] = kept
	}

	if err := s.persist(next); err != nil {
		return err
	}
	s.codes = next
	return nil
}

// Clean drops expired entries and prunes emails left with none.
func (s *CodeStore) Clean() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer s.lock.Unlock()

	now := s.Now()
	next := s.clone()
	for key, entries := range next {
		kept := entries[:0]
		for _, e := range entries {
			if !e.ExpiresAt.Before(now) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(next, key)
		} else {
			next[key] = kept
		}
	}

	if err := s.persist(next); err != nil {
		return err
	}
	s.codes = next
	return nil
}

func (s *CodeStore) clone() map[string][]CodeEntry {
	next := make(map[string][]CodeEntry, len(s.codes))
	for k, v := range s.codes {
		next[k] = append([]CodeEntry(nil), v...)
	}
	return next
}

func (s *CodeStore) persist(codes map[string][]CodeEntry) error {
	raw, err := marshalCodes(codes)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.file, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.file, err)
	}
	return nil
}

// On disk the store is a YAML map from email to a list of
// [code, expires_at] pairs, expires_at being an RFC 3339 instant in UTC.
func marshalCodes(codes map[string][]CodeEntry) ([]byte, error) {
	doc := make(map[string][][]string, len(codes))
	for email, entries := range codes {
		pairs := make([][]string, 0, len(entries))
		for _, e := range entries {
			pairs = append(pairs, []string{e.Code, e.ExpiresAt.UTC().Format(time.RFC3339)})
		}
		doc[email] = pairs
	}
	return yaml.Marshal(doc)
}

func unmarshalCodes(raw []byte) (map[string][]CodeEntry, error) {
	var doc map[string][][]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	codes := make(map[string][]CodeEntry, len(doc))
	for email, pairs := range doc {
		entries := make([]CodeEntry, 0, len(pairs))
		for _, pair := range pairs {
			if len(pair) != 2 {
				return nil, fmt.Errorf("entry for %s: want [code, expires_at], got %d elements", email, len(pair))
			}
			expires, err := time.Parse(time.RFC3339, pair[1])
			if err != nil {
				return nil, fmt.Errorf("entry for %s: bad expiry %q: %w", email, pair[1], err)
			}
			entries = append(entries, CodeEntry{Code: pair[0], ExpiresAt: expires})
		}
		codes[email] = entries
	}
	return codes, nil
}

// generateCode picks codeLength letters uniformly from a-z with a CSPRNG
// and uppercases the result.
func generateCode() (string, error) {
	var b strings.Builder
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(codeCharset[n.Int64()])
	}
	return strings.ToUpper(b.String()), nil
}
