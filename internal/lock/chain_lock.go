package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
)

const (
	keyPrefix = "ledger:lock:"

	unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

	defaultRetryInterval = 25 * time.Millisecond
)

// ErrLockLost is returned on release when the lock expired or was taken over.
var ErrLockLost = errors.New("chain lock no longer held")

// ChainLocker serializes writers of one hash chain through a redis key holding a random token.
type ChainLocker struct {
	client        redis.UniversalClient
	retryInterval time.Duration
	newToken      func() string
}

// NewChainLocker creates a locker on client.
func NewChainLocker(client redis.UniversalClient) *ChainLocker {
	return &ChainLocker{client: client, retryInterval: defaultRetryInterval, newToken: uuid.NewString}
}

var _ portssvc.ChainLocker = (*ChainLocker)(nil)

// Key is the redis key guarding chainID.
func Key(chainID string) string {
	return keyPrefix + chainID
}

// Acquire polls until the key is set or ctx is done. The key expires after ttl even if
// the holder never releases it.
func (l *ChainLocker) Acquire(ctx context.Context, chainID string, ttl time.Duration) (func(context.Context) error, error) {
	key := Key(chainID)
	token := l.newToken()

	try := func() error {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return fmt.Errorf("lock for %s is already held", chainID)
		}
		return nil
	}
	policy := backoff.WithContext(backoff.NewConstantBackOff(l.retryInterval), ctx)
	if err := backoff.Retry(try, policy); err != nil {
		return nil, fmt.Errorf("failed to acquire lock for %s: %w", chainID, err)
	}

	release := func(ctx context.Context) error {
		res, err := l.client.Eval(ctx, unlockScript, []string{key}, token).Int64()
		if err != nil {
			return fmt.Errorf("failed to release lock for %s: %w", chainID, err)
		}
		if res == 0 {
			return fmt.Errorf("%s: %w", chainID, ErrLockLost)
		}
		return nil
	}
	return release, nil
}
