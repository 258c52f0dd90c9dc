package session

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// BoltStore persists sessions in a bbolt file, one nested bucket per conversation.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the session database at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Session returns the handle scoped to one conversation.
func (s *BoltStore) Session(id string) *BoltSession {
	return &BoltSession{db: s.db, id: []byte(id)}
}

// Delete drops every key stored for a conversation.
func (s *BoltStore) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(sessionsBucket)
		if root.Bucket([]byte(id)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(id))
	})
}

// BoltSession is a Session backed by a BoltStore.
type BoltSession struct {
	db *bolt.DB
	id []byte
}

func (s *BoltSession) Get(key string, dst any) (bool, error) {
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionsBucket).Bucket(s.id)
		if bucket == nil {
			return nil
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, dst)
	})
	if err != nil {
		return found, fmt.Errorf("read session key %q: %w", key, err)
	}
	return found, nil
}

func (s *BoltSession) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session key %q: %w", key, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(sessionsBucket).CreateBucketIfNotExists(s.id)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
}

func (s *BoltSession) Has(key string) bool {
	found := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket(sessionsBucket).Bucket(s.id); bucket != nil {
			found = bucket.Get([]byte(key)) != nil
		}
		return nil
	})
	return found
}
