package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	formKeyPrefix        = "waitlist:form:"
	maxOptimisticRetries = 5
)

func formKey(id string) string {
	return formKeyPrefix + id
}

// RedisSessionStore shares form state across instances. Updates use WATCH/MULTI so two
// concurrent submits on one form cannot both move it to submitting.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Create(ctx context.Context, form *Form) error {
	data, err := encodeForm(form)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, formKey(form.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create form session: %w", err)
	}
	if !ok {
		return fmt.Errorf("create form session: id %q already exists", form.ID)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Form, error) {
	data, err := s.client.Get(ctx, formKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get form session: %w", err)
	}
	return decodeForm(data)
}

func (s *RedisSessionStore) Update(ctx context.Context, id string, fn func(*Form) error) (*Form, error) {
	key := formKey(id)

	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		var result *Form

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrFormNotFound
			}
			if err != nil {
				return err
			}

			form, err := decodeForm(data)
			if err != nil {
				return err
			}

			if err := fn(form); err != nil {
				result, _ = decodeForm(data)
				return err
			}

			updated, err := encodeForm(form)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, s.ttl)
				return nil
			})
			if err == nil {
				result = form
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return result, err
		}
		return result, nil
	}

	return nil, fmt.Errorf("update form session %q: too much contention", id)
}
