// Package store persists conversation history so a chat session survives a
// restart of the HTTP server.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
)

var conversationsBucket = []byte("conversations")

const maxConversationTurns = 50

type Store interface {
	GetHistory(sessionID string) ([]session.Message, error)
	SaveHistory(sessionID string, msgs []session.Message) error
	ClearHistory(sessionID string) error
	Close() error
}

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(conversationsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating conversations bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) GetHistory(sessionID string) ([]session.Message, error) {
	var msgs []session.Message
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(conversationsBucket).Get([]byte(sessionID))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &msgs)
	})
	return msgs, err
}

// SaveHistory stores the conversation, keeping only the most recent turns.
func (s *BoltStore) SaveHistory(sessionID string, msgs []session.Message) error {
	if len(msgs) > maxConversationTurns {
		msgs = msgs[len(msgs)-maxConversationTurns:]
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(msgs)
		if err != nil {
			return err
		}
		return tx.Bucket(conversationsBucket).Put([]byte(sessionID), data)
	})
}

func (s *BoltStore) ClearHistory(sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).Delete([]byte(sessionID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
