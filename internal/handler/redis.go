package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/isc-horarios/timetable/backend/internal/config"
	"github.com/isc-horarios/timetable/backend/internal/domain"
)

const (
	runLockKey       = "timetable_run_lock"
	generationLogKey = "timetable_generation_log"
)

var errRunLockLost = errors.New("run lock expired or taken by another run")

// 只有锁的值仍然是自己的 token 时才删除
var releaseRunLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisRunStore struct {
	cfg    *config.Config
	client *redis.Client
}

func (s *redisRunStore) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.cfg.Redis.OperationTimeout)*time.Second)
}

// AcquireRunLock 同一时间只允许一次排课运行，锁会在超时后自动释放。
// 返回的 token 用于释放锁
func (s *redisRunStore) AcquireRunLock(ctx context.Context) (string, bool, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	token := uuid.NewString()
	expiration := time.Duration(s.cfg.Scheduler.LockExpiration) * time.Second
	acquired, err := s.client.SetNX(ctx, runLockKey, token, expiration).Result()
	if err != nil || !acquired {
		return "", false, err
	}
	return token, true, nil
}

func (s *redisRunStore) ReleaseRunLock(ctx context.Context, token string) error {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	deleted, err := releaseRunLockScript.Run(ctx, s.client, []string{runLockKey}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errRunLockLost
	}
	return nil
}

func (s *redisRunStore) CacheGenerationLog(ctx context.Context, records []domain.GenerationRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	expiration := time.Duration(s.cfg.Scheduler.LogCacheExpiration) * time.Second
	return s.client.Set(ctx, generationLogKey, data, expiration).Err()
}

// CachedGenerationLog 在缓存不存在时返回空切片
func (s *redisRunStore) CachedGenerationLog(ctx context.Context) ([]domain.GenerationRecord, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, generationLogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return make([]domain.GenerationRecord, 0), nil
		}
		return nil, err
	}

	records := make([]domain.GenerationRecord, 0)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
