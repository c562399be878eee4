package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisCodePrefix = "labbook:login_code:"

type redisCodeStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisCodeStore keeps login codes in redis; each key expires together with its code.
func NewRedisCodeStore(client redis.Cmdable) CodeStore {
	return &redisCodeStore{client: client, now: time.Now}
}

type redisLoginCode struct {
	CodeHash   string     `json:"code_hash"`
	Attempts   int        `json:"attempts"`
	LastSentAt time.Time  `json:"last_sent_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

func redisCodeKey(email string) string {
	return redisCodePrefix + normalizeEmail(email)
}

func encodeRedisCode(code *LoginCode) ([]byte, error) {
	return json.Marshal(redisLoginCode{
		CodeHash:   code.CodeHash,
		Attempts:   code.Attempts,
		LastSentAt: code.LastSentAt,
		ExpiresAt:  code.ExpiresAt,
		UsedAt:     code.UsedAt,
	})
}

func decodeRedisCode(email string, data []byte) (*LoginCode, error) {
	var row redisLoginCode
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return &LoginCode{
		Email:      email,
		CodeHash:   row.CodeHash,
		Attempts:   row.Attempts,
		LastSentAt: row.LastSentAt,
		ExpiresAt:  row.ExpiresAt,
		UsedAt:     row.UsedAt,
	}, nil
}

func (s *redisCodeStore) Get(ctx context.Context, email string) (*LoginCode, error) {
	data, err := s.client.Get(ctx, redisCodeKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return decodeRedisCode(email, data)
}

func (s *redisCodeStore) Save(ctx context.Context, code *LoginCode) error {
	fresh := *code
	fresh.Attempts = 0
	fresh.UsedAt = nil
	data, err := encodeRedisCode(&fresh)
	if err != nil {
		return err
	}

	ttl := code.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, redisCodeKey(code.Email), data, ttl).Err()
}

func (s *redisCodeStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	code, err := s.Get(ctx, email)
	if err != nil {
		return 0, err
	}
	code.Attempts++
	if err := s.rewrite(ctx, code); err != nil {
		return 0, err
	}
	return code.Attempts, nil
}

func (s *redisCodeStore) MarkUsed(ctx context.Context, email string, at time.Time) error {
	code, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	code.UsedAt = &at
	return s.rewrite(ctx, code)
}

func (s *redisCodeStore) rewrite(ctx context.Context, code *LoginCode) error {
	data, err := encodeRedisCode(code)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisCodeKey(code.Email), data, redis.KeepTTL).Err()
}
