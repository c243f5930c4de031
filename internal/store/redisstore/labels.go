package redisstore

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/supportbot/internal/intent"
	"golang.org/x/crypto/blake2b"
)

const (
	labelPrefix     = "supportbot:label:"
	DefaultLabelTTL = 24 * time.Hour
)

type Store struct {
	rdb      *redis.Client
	labelTTL time.Duration
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		labelTTL: DefaultLabelTTL,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// LabelKey hashes the normalised text so keys stay short and no raw user
// text ends up in key names.
func LabelKey(text string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := blake2b.Sum256([]byte(norm))
	return labelPrefix + hex.EncodeToString(sum[:16])
}

func (s *Store) Get(ctx context.Context, text string) (intent.Label, bool, error) {
	v, err := s.rdb.Get(ctx, LabelKey(text)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	l := intent.Label(v)
	if !l.Valid() {
		return "", false, nil
	}
	return l, true, nil
}

func (s *Store) Set(ctx context.Context, text string, label intent.Label) error {
	return s.rdb.Set(ctx, LabelKey(text), string(label), s.labelTTL).Err()
}
