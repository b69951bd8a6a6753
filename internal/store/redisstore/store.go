package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkazmin/careerpilot/internal/trajectory"
)

// Store caches per-user trajectory listings. The remote store stays
// authoritative: entries expire quickly and are only a round-trip saver for
// the dashboard's listing view.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func listKey(userID string) string {
	return fmt.Sprintf("trajectories:user:%s", userID)
}

// GetUserTrajectories returns the cached listing, or ok=false on a miss.
// A cache entry that fails to decode counts as a miss.
func (s *Store) GetUserTrajectories(ctx context.Context, userID string) ([]trajectory.Data, bool, error) {
	raw, err := s.rdb.Get(ctx, listKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var list []trajectory.Data
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false, nil
	}
	return list, true, nil
}

func (s *Store) SetUserTrajectories(ctx context.Context, userID string, list []trajectory.Data) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, listKey(userID), raw, s.ttl).Err()
}

// InvalidateUserTrajectories drops the cached listing, e.g. after a build
// produced a new trajectory for the user.
func (s *Store) InvalidateUserTrajectories(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, listKey(userID)).Err()
}
