package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"microloan-backend/internal/domain/errs"
	"microloan-backend/pkg/id"

	"github.com/redis/go-redis/v9"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return r, nil
}

const SweepLockKey = "sweep:lock"

// delete the key only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// push the expiry out only if we still own it
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// SweepLock keeps two sweep runs (e.g. cron and a manual POST /sweeps) from
// overlapping across processes.
type SweepLock struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewSweepLock(rdb *redis.Client, ttl time.Duration) *SweepLock {
	return &SweepLock{rdb: rdb, key: SweepLockKey, ttl: ttl}
}

// Acquire returns errs.ErrSweepInProgress if another holder has the lock.
// While held, the TTL is refreshed every third of its length, so a sweep that
// outlives one TTL keeps the lock. If the process dies the key still expires.
// The returned release func is safe to call more than once and after the TTL
// expired.
func (s *SweepLock) Acquire(ctx context.Context) (func(), error) {
	token := id.NewID32()
	ok, err := s.rdb.SetNX(ctx, s.key, token, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return nil, errs.ErrSweepInProgress
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go s.keepAlive(token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// the caller's ctx may be done by now
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, s.rdb, []string{s.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("release sweep lock: %v", err)
			}
		})
	}, nil
}

func (s *SweepLock) keepAlive(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(s.ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			held, err := s.refresh(token)
			if err != nil {
				log.Printf("refresh sweep lock: %v", err)
				continue
			}
			if !held {
				log.Printf("sweep lock %s lost before release", s.key)
				return
			}
		}
	}
}

func (s *SweepLock) refresh(token string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := refreshScript.Run(ctx, s.rdb, []string{s.key}, token, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
