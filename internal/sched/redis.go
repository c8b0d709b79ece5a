package sched

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	scheduleZSet   = "lifequest:schedule"
	schedulePrefix = "lifequest:schedule:job:"
)

// RedisScheduler parks deadline callbacks in a Redis sorted set scored by
// fire time. A Dispatcher polls the set and POSTs due callbacks to the todo
// webhook, which makes delivery at-least-once: a job is only removed after a
// successful POST, so crashes and webhook failures lead to redelivery, never
// to loss.
type RedisScheduler struct {
	rdb *redis.Client
}

func NewRedisScheduler(rdb *redis.Client) *RedisScheduler {
	return &RedisScheduler{rdb: rdb}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

func (s *RedisScheduler) Schedule(ctx context.Context, callbackID string, fireAt time.Time) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, schedulePrefix+token, callbackID, 0).Err(); err != nil {
		return "", fmt.Errorf("schedule set: %w", err)
	}
	if err := s.rdb.ZAdd(ctx, scheduleZSet, redis.Z{
		Score:  float64(fireAt.Unix()),
		Member: token,
	}).Err(); err != nil {
		return "", fmt.Errorf("schedule zadd: %w", err)
	}
	return token, nil
}

func (s *RedisScheduler) Cancel(ctx context.Context, token string) (CancelResult, error) {
	removed, err := s.rdb.ZRem(ctx, scheduleZSet, token).Result()
	if err != nil {
		return "", fmt.Errorf("schedule zrem: %w", err)
	}
	_ = s.rdb.Del(ctx, schedulePrefix+token).Err()
	if removed == 0 {
		return CancelAlreadyFired, nil
	}
	return CancelOK, nil
}

// Dispatcher polls for due jobs and delivers them to the webhook endpoint
// with the static shared secret.
type Dispatcher struct {
	rdb        *redis.Client
	baseURL    string
	secret     string
	httpClient *http.Client
	interval   time.Duration
	logger     *log.Logger
}

func NewDispatcher(rdb *redis.Client, baseURL, secret string, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		rdb:        rdb,
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		interval:   15 * time.Second,
		logger:     logger,
	}
}

// Run polls until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.dispatchDue(ctx, time.Now()); err != nil {
				d.logger.Printf("scheduler dispatch: %v", err)
			}
		}
	}
}

func (d *Dispatcher) dispatchDue(ctx context.Context, now time.Time) error {
	tokens, err := d.rdb.ZRangeByScore(ctx, scheduleZSet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.Unix()),
		Count: 100,
	}).Result()
	if err != nil {
		return fmt.Errorf("zrangebyscore: %w", err)
	}

	for _, token := range tokens {
		callbackID, err := d.rdb.Get(ctx, schedulePrefix+token).Result()
		if err == redis.Nil {
			// Orphaned score entry; drop it.
			_ = d.rdb.ZRem(ctx, scheduleZSet, token).Err()
			continue
		}
		if err != nil {
			return fmt.Errorf("job lookup: %w", err)
		}

		if err := d.deliver(ctx, callbackID); err != nil {
			// Leave the job in place; the next poll retries it.
			d.logger.Printf("scheduler deliver %s: %v", callbackID, err)
			continue
		}

		_ = d.rdb.ZRem(ctx, scheduleZSet, token).Err()
		_ = d.rdb.Del(ctx, schedulePrefix+token).Err()
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, callbackID string) error {
	url := fmt.Sprintf("%s/api/todos/%s/check-validity", d.baseURL, callbackID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+d.secret)

	res, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 500 {
		return fmt.Errorf("webhook returned %d", res.StatusCode)
	}
	// 2xx and 4xx both count as delivered: a 404/409 means the todo is gone
	// or already settled, and retrying would never succeed.
	return nil
}
