package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dueSetKey = "reminder:due"

// takeScript removes a member from the due set only if its score still
// matches, so a trigger superseded between scan and claim stays put.
var takeScript = redis.NewScript(`
local score = redis.call("ZSCORE", KEYS[1], ARGV[1])
if not score then
	return 0
end
if tonumber(score) ~= tonumber(ARGV[2]) then
	return 0
end
redis.call("ZREM", KEYS[1], ARGV[1])
return 1
`)

// settleScript deletes the job document only while no trigger is in
// the due set; an entry there means a reschedule landed after the
// claim and the fresh job must survive.
var settleScript = redis.NewScript(`
if redis.call("ZSCORE", KEYS[1], KEYS[2]) then
	return 0
end
redis.call("DEL", KEYS[2])
return 1
`)

// rearmScript re-installs a claimed job for a retry, unless the job
// was superseded (fresh due entry) or canceled (document gone) while
// the execution was in flight.
var rearmScript = redis.NewScript(`
if redis.call("ZSCORE", KEYS[1], KEYS[2]) then
	return 0
end
if redis.call("EXISTS", KEYS[2]) == 0 then
	return 0
end
redis.call("SET", KEYS[2], ARGV[1])
redis.call("ZADD", KEYS[1], ARGV[2], KEYS[2])
return 1
`)

// RedisStore persists reminder jobs in Redis: the job document under
// its own key and a sorted set of keys scored by fire time for the
// due scan.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, job *ReminderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder job: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, job.Key, data, 0)
		pipe.ZAdd(ctx, dueSetKey, redis.Z{
			Score:  float64(job.FireAt.UnixMilli()),
			Member: job.Key,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist reminder job: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, dueSetKey, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove reminder job: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*ReminderJob, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrTriggerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder job: %w", err)
	}

	var job ReminderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reminder job: %w", err)
	}
	return &job, nil
}

func (s *RedisStore) Due(ctx context.Context, now time.Time) ([]*ReminderJob, error) {
	keys, err := s.client.ZRangeByScore(ctx, dueSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UnixMilli()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan due triggers: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	jobs := make([]*ReminderJob, 0, len(keys))
	for _, key := range keys {
		job, err := s.Get(ctx, key)
		if err == ErrTriggerNotFound {
			// Job document gone but index entry left behind; heal it.
			s.client.ZRem(ctx, dueSetKey, key)
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *RedisStore) Take(ctx context.Context, key string, fireAt time.Time) (bool, error) {
	claimed, err := takeScript.Run(ctx, s.client, []string{dueSetKey},
		key, fireAt.UnixMilli()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to claim trigger: %w", err)
	}
	return claimed == 1, nil
}

func (s *RedisStore) Settle(ctx context.Context, key string) error {
	if err := settleScript.Run(ctx, s.client, []string{dueSetKey, key}).Err(); err != nil {
		return fmt.Errorf("failed to settle trigger: %w", err)
	}
	return nil
}

func (s *RedisStore) Rearm(ctx context.Context, job *ReminderJob) (bool, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("failed to marshal reminder job: %w", err)
	}

	rearmed, err := rearmScript.Run(ctx, s.client, []string{dueSetKey, job.Key},
		data, job.FireAt.UnixMilli()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to re-arm trigger: %w", err)
	}
	return rearmed == 1, nil
}
