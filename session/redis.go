package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend persists the two slots as two keys under a prefix. Writes run
// in one MULTI/EXEC pipeline and removal is a single two-key DEL, so the pair
// stays whole even if the process dies mid-operation.
//
// Useful when the embedding process is itself a backend (BFF, worker) and the
// session must survive restarts or be shared across replicas.
//
//	Docs: docs/session.md
type RedisBackend struct {
	client        redis.UniversalClient
	prefix        string
	credentialKey string
	identityKey   string
}

// NewRedisBackend describes the newredisbackend operation and its observable behavior.
func NewRedisBackend(client redis.UniversalClient, prefix, credentialKey, identityKey string) (*RedisBackend, error) {
	if client == nil {
		return nil, errors.New("redis backend requires a client")
	}
	if prefix == "" {
		prefix = "gb"
	}
	if credentialKey == "" || identityKey == "" {
		return nil, errors.New("redis backend requires slot names")
	}
	if credentialKey == identityKey {
		return nil, errors.New("redis backend slot names must differ")
	}

	return &RedisBackend{
		client:        client,
		prefix:        prefix,
		credentialKey: credentialKey,
		identityKey:   identityKey,
	}, nil
}

// Load describes the load operation and its observable behavior.
func (b *RedisBackend) Load(ctx context.Context) (string, []byte, error) {
	values, err := b.client.MGet(ctx, b.key(b.credentialKey), b.key(b.identityKey)).Result()
	if err != nil {
		return "", nil, err
	}
	if len(values) != 2 {
		return "", nil, nil
	}

	credential, _ := values[0].(string)
	identity, _ := values[1].(string)
	if credential == "" || identity == "" {
		return credential, nil, nil
	}

	return credential, []byte(identity), nil
}

// Store describes the store operation and its observable behavior.
func (b *RedisBackend) Store(ctx context.Context, credential string, identity []byte) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, b.key(b.credentialKey), credential, 0)
		pipe.Set(ctx, b.key(b.identityKey), identity, 0)
		return nil
	})
	return err
}

// Clear describes the clear operation and its observable behavior.
func (b *RedisBackend) Clear(ctx context.Context) error {
	return b.client.Del(ctx, b.key(b.credentialKey), b.key(b.identityKey)).Err()
}

// Ping verifies backend connectivity. Builders call it once so a dead Redis
// fails fast instead of on the first request.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) key(slot string) string {
	return b.prefix + ":" + slot
}
