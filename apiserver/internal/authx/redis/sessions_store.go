package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const (
	sessionKeyPrefix      = "session:"
	pendingLoginKeyPrefix = "pendingLogin:"
)

func sessionKey(hashedToken string) string {
	return sessionKeyPrefix + hashedToken
}

func pendingLoginKey(hashedState string) string {
	return pendingLoginKeyPrefix + hashedState
}

type sessionsStore struct {
	redisClient *redis.Client
}

// NewSessionsStore returns a Redis-based implementation of the
// authx.SessionsStore interface. Expiry is delegated to Redis itself:
// records are written with a TTL and simply stop existing when it lapses.
func NewSessionsStore(redisClient *redis.Client) authx.SessionsStore {
	return &sessionsStore{
		redisClient: redisClient,
	}
}

func (s *sessionsStore) Save(
	ctx context.Context,
	hashedToken string,
	record authx.SessionRecord,
	ttl time.Duration,
) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "error marshaling session record")
	}
	if err := s.redisClient.Set(
		sessionKey(hashedToken),
		recordJSON,
		ttl,
	).Err(); err != nil {
		return errors.Wrap(err, "error storing session record")
	}
	return nil
}

func (s *sessionsStore) Load(
	ctx context.Context,
	hashedToken string,
) (authx.SessionRecord, error) {
	record := authx.SessionRecord{}
	recordJSON, err := s.redisClient.Get(sessionKey(hashedToken)).Bytes()
	if err == redis.Nil {
		return record, &meta.ErrNotFound{
			Type: "Session",
		}
	}
	if err != nil {
		return record, errors.Wrap(err, "error retrieving session record")
	}
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return record, errors.Wrap(err, "error unmarshaling session record")
	}
	// Sessions expire a fixed interval after their last use, not their
	// creation, so every successful load pushes the expiry out again.
	if err := s.redisClient.Expire(
		sessionKey(hashedToken),
		authx.SessionTTL,
	).Err(); err != nil {
		return record, errors.Wrap(err, "error extending session expiry")
	}
	return record, nil
}

func (s *sessionsStore) Delete(
	ctx context.Context,
	hashedToken string,
) error {
	if err := s.redisClient.Del(sessionKey(hashedToken)).Err(); err != nil {
		return errors.Wrap(err, "error deleting session record")
	}
	return nil
}

func (s *sessionsStore) SavePendingLogin(
	ctx context.Context,
	hashedState string,
	pending authx.PendingLogin,
	ttl time.Duration,
) error {
	pendingJSON, err := json.Marshal(pending)
	if err != nil {
		return errors.Wrap(err, "error marshaling pending login")
	}
	if err := s.redisClient.Set(
		pendingLoginKey(hashedState),
		pendingJSON,
		ttl,
	).Err(); err != nil {
		return errors.Wrap(err, "error storing pending login")
	}
	return nil
}

func (s *sessionsStore) TakePendingLogin(
	ctx context.Context,
	hashedState string,
) (authx.PendingLogin, error) {
	pending := authx.PendingLogin{}
	key := pendingLoginKey(hashedState)
	pendingJSON, err := s.redisClient.Get(key).Bytes()
	if err == redis.Nil {
		return pending, &meta.ErrNotFound{
			Type: "PendingLogin",
		}
	}
	if err != nil {
		return pending, errors.Wrap(err, "error retrieving pending login")
	}
	// Whoever deletes the key owns the login attempt. Concurrent callers
	// presenting the same state can race the read, but only one of them can
	// win this delete.
	deleted, err := s.redisClient.Del(key).Result()
	if err != nil {
		return pending, errors.Wrap(err, "error removing pending login")
	}
	if deleted == 0 {
		return pending, &meta.ErrNotFound{
			Type: "PendingLogin",
		}
	}
	if err := json.Unmarshal(pendingJSON, &pending); err != nil {
		return pending, errors.Wrap(err, "error unmarshaling pending login")
	}
	return pending, nil
}
