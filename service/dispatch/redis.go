package dispatch

import (
	"encoding/json"
	"time"

	"github.com/garyburd/redigo/redis"
)

// Redis layout, under the configured prefix:
//
//	<prefix>:jobs     hash   job id -> JSON descriptor (dedup by HSETNX)
//	<prefix>:ready    zset   job id scored by priority
//	<prefix>:delayed  zset   job id scored by unix due time
type redisService struct {
	pool *redis.Pool
	conf ServiceConfig
}

// New creates a redis-backed dispatch queue.
func New(redisURL string, conf ServiceConfig) (Service, error) {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(redisURL)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, err
	}

	return &redisService{pool: pool, conf: conf}, nil
}

func (s *redisService) key(suffix string) string {
	return s.conf.KeyPrefix + ":" + suffix
}

func (s *redisService) Submit(job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	conn := s.pool.Get()
	defer conn.Close()

	added, err := redis.Int(conn.Do("HSETNX", s.key("jobs"), job.ID, data))
	if err != nil {
		return err
	}
	if added == 0 {
		// Already submitted. The queue position stands; this makes
		// redundant submissions a no-op.
		return nil
	}

	if !job.DelayUntil.IsZero() {
		_, err = conn.Do("ZADD", s.key("delayed"), "NX", job.DelayUntil.Unix(), job.ID)
		return err
	}
	_, err = conn.Do("ZADD", s.key("ready"), "NX", job.Priority, job.ID)
	return err
}

func (s *redisService) Remove(jobID string) error {
	conn := s.pool.Get()
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("ZREM", s.key("ready"), jobID)
	conn.Send("ZREM", s.key("delayed"), jobID)
	conn.Send("HDEL", s.key("jobs"), jobID)
	_, err := conn.Do("EXEC")
	return err
}

func (s *redisService) Get(jobID string) (Job, error) {
	var job Job

	conn := s.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("HGET", s.key("jobs"), jobID))
	if err == redis.ErrNil {
		return job, ErrNotFound
	}
	if err != nil {
		return job, err
	}
	err = json.Unmarshal(data, &job)
	return job, err
}

func (s *redisService) PromoteDelayed(now time.Time) (int, error) {
	conn := s.pool.Get()
	defer conn.Close()

	ids, err := redis.Strings(conn.Do("ZRANGEBYSCORE", s.key("delayed"), "-inf", now.Unix()))
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, id := range ids {
		data, err := redis.Bytes(conn.Do("HGET", s.key("jobs"), id))
		if err == redis.ErrNil {
			// Descriptor gone, drop the orphaned schedule.
			conn.Do("ZREM", s.key("delayed"), id)
			continue
		}
		if err != nil {
			return promoted, err
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			return promoted, err
		}

		conn.Send("MULTI")
		conn.Send("ZADD", s.key("ready"), "NX", job.Priority, id)
		conn.Send("ZREM", s.key("delayed"), id)
		if _, err := conn.Do("EXEC"); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

func (s *redisService) Close() error {
	return s.pool.Close()
}
