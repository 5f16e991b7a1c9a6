package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/ecole/core/session"
)

var sessionsBucket = []byte("sessions")

// boltStore keeps sessions in a bbolt file.
// Expired sessions are dropped when read, and swept on write at most once per sweepInterval.
type boltStore struct {
	db        *bbolt.DB
	now       func() time.Time
	lastSweep time.Time // guarded by the bbolt writer lock
}

func OpenBoltStore(path string) (Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening session file")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating sessions bucket")
	}
	return &boltStore{db: db, now: time.Now}, nil
}

func (s *boltStore) Save(_ context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if err := b.Put([]byte(sess.ID), data); err != nil {
			return err
		}
		return s.sweep(b)
	})
}

func (s *boltStore) sweep(b *bbolt.Bucket) error {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return nil
	}

	var expired [][]byte
	err := b.ForEach(func(k, v []byte) error {
		var sess session.Session
		if err := json.Unmarshal(v, &sess); err != nil || sess.Expired(now) {
			expired = append(expired, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "scanning sessions")
	}
	for _, k := range expired {
		if err = b.Delete(k); err != nil {
			return errors.Wrap(err, "deleting expired session")
		}
	}
	s.lastSweep = now
	return nil
}

func (s *boltStore) Get(_ context.Context, id string) (session.Session, error) {
	var sess session.Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get([]byte(id))
		if data == nil {
			return session.ErrNotFound
		}
		return errors.Wrap(json.Unmarshal(data, &sess), "decoding session")
	})
	if err != nil {
		return session.Session{}, err
	}

	if sess.Expired(s.now()) {
		_ = s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(sessionsBucket).Delete([]byte(id))
		})
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *boltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if b.Get([]byte(id)) == nil {
			return session.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *boltStore) Close() error {
	return s.db.Close()
}
