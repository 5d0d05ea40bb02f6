package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/logging"
)

// RedisCheckpointer stores each thread as a Redis list of JSON messages and
// indexes threads in a sorted set scored by last update time.
//
//	<prefix>thread:<id>  LIST  of JSON-encoded domain.Message
//	<prefix>threads      ZSET  member=<id> score=unix millis of last append
type RedisCheckpointer struct {
	client *redis.Client
	prefix string
	log    *logging.Logger
}

// NewRedisCheckpointer connects to redisURL and verifies the connection.
func NewRedisCheckpointer(ctx context.Context, redisURL, prefix string, log *logging.Logger) (*RedisCheckpointer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log = log.Sub("checkpoint")
	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to redis")
	return &RedisCheckpointer{client: client, prefix: prefix, log: log}, nil
}

func (r *RedisCheckpointer) threadKey(id string) string { return r.prefix + "thread:" + id }
func (r *RedisCheckpointer) indexKey() string           { return r.prefix + "threads" }

func (r *RedisCheckpointer) Load(ctx context.Context, threadID string) ([]domain.Message, error) {
	raw, err := r.client.LRange(ctx, r.threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("loading thread %s: %w", threadID, err)
	}

	msgs := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decoding message in thread %s: %w", threadID, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (r *RedisCheckpointer) Append(ctx context.Context, threadID string, msgs ...domain.Message) error {
	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encoding message: %w", err)
		}
		values = append(values, data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.RPush(ctx, r.threadKey(threadID), values...)
		}
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(time.Now().UnixMilli()),
			Member: threadID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending to thread %s: %w", threadID, err)
	}
	return nil
}

func (r *RedisCheckpointer) Threads(ctx context.Context) ([]domain.ThreadInfo, error) {
	entries, err := r.client.ZRevRangeWithScores(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	lens := make([]*redis.IntCmd, len(entries))
	if _, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, e := range entries {
			lens[i] = pipe.LLen(ctx, r.threadKey(fmt.Sprint(e.Member)))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("counting thread messages: %w", err)
	}

	infos := make([]domain.ThreadInfo, 0, len(entries))
	for i, e := range entries {
		infos = append(infos, domain.ThreadInfo{
			ID:        fmt.Sprint(e.Member),
			Messages:  int(lens[i].Val()),
			UpdatedAt: time.UnixMilli(int64(e.Score)),
		})
	}
	return infos, nil
}

func (r *RedisCheckpointer) Close() error {
	r.log.Info().Msg("closing redis connection")
	return r.client.Close()
}
