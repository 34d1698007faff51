package redlock

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrHeld reports that the key is locked by another holder. Callers
// distinguish it from transport errors to decide between skipping and
// failing.
var ErrHeld = errors.New("lock already held")

var (
	releaseScript = redis.NewScript(
		"if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end")
	refreshScript = redis.NewScript(
		"if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end")
)

// Locker is a single-key advisory lock in Redis. The holder value ties
// the lock to its owner, so a key that expired and was reacquired by
// someone else can never be released or renewed by the previous owner.
type Locker struct {
	client redis.UniversalClient
	key    string
	holder string
}

func NewLocker(client redis.UniversalClient, key, holder string) *Locker {
	return &Locker{
		client: client,
		key:    key,
		holder: holder,
	}
}

func (l *Locker) Lock(ctx context.Context, ttl time.Duration) error {
	acquired, err := l.client.SetNX(ctx, l.key, l.holder, ttl).Result()
	if err != nil {
		return err
	}
	if !acquired {
		return errors.Wrapf(ErrHeld, "key %s", l.key)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	released, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.holder).Int64()
	if err != nil {
		return err
	}
	if released == 0 {
		return errors.Errorf("unlock of key %s failed, lock expired or held by someone else", l.key)
	}
	return nil
}

// Refresh pushes the lock's expiry out by ttl. Long-running holders call
// this periodically so the lock cannot lapse mid-operation.
func (l *Locker) Refresh(ctx context.Context, ttl time.Duration) error {
	renewed, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.holder, ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if renewed == 0 {
		return errors.Errorf("refresh of key %s failed, lock expired or held by someone else", l.key)
	}
	return nil
}

// WaitLock polls for the lock until it is acquired, wait elapses, or the
// context is canceled. Transport errors abort immediately.
func (l *Locker) WaitLock(ctx context.Context, ttl, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		err := l.Lock(ctx, ttl)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrHeld) {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ErrHeld, "waiting for key %s", l.key)
		case <-ticker.C:
		}
	}
}
