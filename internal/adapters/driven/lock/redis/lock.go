// Package redis provides a writer lock shared between processes through Redis.
package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
)

// Ensure Lock implements the interface.
var _ driven.WriterLock = (*Lock)(nil)

const lockPrefix = "nexuspj:lock:"

// Default configuration values.
const (
	DefaultTTL       = 10 * time.Minute
	DefaultRetryWait = 100 * time.Millisecond
)

// Lock implements WriterLock using Redis SETNX with a TTL. Each acquisition
// stores a unique token so that only its holder can release it. While held,
// the TTL is extended in the background so long ingests keep the lock.
type Lock struct {
	client    *redis.Client
	ownerID   string
	ttl       time.Duration
	retryWait time.Duration
}

// NewLock creates a Redis-backed writer lock. ttl <= 0 uses DefaultTTL.
func NewLock(client *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lock{
		client:    client,
		ownerID:   generateOwnerID(),
		ttl:       ttl,
		retryWait: DefaultRetryWait,
	}
}

// generateOwnerID returns hostname:pid:random.
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

// OwnerID returns the identifier stored in held lock keys.
func (l *Lock) OwnerID() string {
	return l.ownerID
}

// Ping checks the Redis connection.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Acquire polls SETNX until the lock is taken or ctx is done.
func (l *Lock) Acquire(ctx context.Context, collection string) (driven.LockHandle, error) {
	key := lockPrefix + collection
	token := l.ownerID + ":" + randomSuffix()

	ticker := time.NewTicker(l.retryWait)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %q: %w", domain.ErrWriterBusy, collection, ctx.Err())
			}
			return nil, fmt.Errorf("acquire lock %s: %w", collection, err)
		}
		if ok {
			return l.hold(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %q: %w", domain.ErrWriterBusy, collection, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Lock) hold(key, token string) *handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		lock:   l,
		key:    key,
		token:  token,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.keepAlive(ctx, l.ttl/3)
	return h
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// extendScript refreshes the TTL only when the key still holds our token.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

type handle struct {
	lock   *Lock
	key    string
	token  string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (h *handle) keepAlive(ctx context.Context, every time.Duration) {
	defer close(h.done)
	if every <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := extendScript.Run(ctx, h.lock.client, []string{h.key}, h.token, h.lock.ttl.Milliseconds()).Int64()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("extend lock %s: %v", h.key, err)
				continue
			}
			if err == nil && res == 0 {
				logger.Warn("lock %s expired while held", h.key)
				return
			}
		}
	}
}

// Release stops the keep-alive and deletes the key if still ours.
func (h *handle) Release(ctx context.Context) error {
	var err error
	h.once.Do(func() {
		h.cancel()
		<-h.done
		_, runErr := releaseScript.Run(ctx, h.lock.client, []string{h.key}, h.token).Result()
		if runErr != nil && !errors.Is(runErr, redis.Nil) {
			err = fmt.Errorf("release lock %s: %w", h.key, runErr)
		}
	})
	return err
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
