package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"reelops/models"
)

// BadgerStore persists sessions in an embedded Badger database so they
// survive restarts of a single instance. Entries carry a TTL.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens (or creates) the database at path. An empty path runs
// in memory.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", path, err)
	}
	return db, nil
}

func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	return &BadgerStore{db: db, ttl: ttl}
}

func (s *BadgerStore) Create(_ context.Context, role models.Role) (models.Session, error) {
	sess, err := newSession(role, s.ttl, time.Now())
	if err != nil {
		return models.Session{}, err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return models.Session{}, fmt.Errorf("encode session: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(sess.Token), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return models.Session{}, fmt.Errorf("badger set session: %w", err)
	}
	return sess, nil
}

func (s *BadgerStore) Get(_ context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, models.ErrSessionNotFound
	}
	var sess models.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("badger get session: %w", err)
	}
	// Badger TTLs have one-second resolution.
	if sess.Expired(time.Now()) {
		return models.Session{}, models.ErrSessionNotFound
	}
	return sess, nil
}

func (s *BadgerStore) Destroy(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(token))
	})
	if err != nil {
		return fmt.Errorf("badger delete session: %w", err)
	}
	return nil
}
