package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"PoseFeedback/internal/entity"
	"PoseFeedback/pkg/log"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// IResultCache remembers analysis results for identical image bytes. Scoring
// is deterministic, so a hit is indistinguishable from a fresh analysis.
type IResultCache interface {
	Get(ctx context.Context, key string) (*entity.AnalysisResult, bool)
	Set(ctx context.Context, key string, result *entity.AnalysisResult) error
	Ping(ctx context.Context) error
}

type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(cfg Config) IResultCache {
	log.Info(log.Fields{"address": cfg.Address}, "Connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(log.Fields{"error": err.Error()}, "Failed to connect to Redis, result cache degraded")
	} else {
		log.Info(nil, "Successfully connected to Redis")
	}

	return NewFromClient(client, cfg.TTL)
}

func NewFromClient(client *redis.Client, ttl time.Duration) IResultCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisCache{client: client, ttl: ttl}
}

// Key derives the cache key from the exercise kind and the image bytes.
func Key(exercise string, image []byte) string {
	sum := sha256.Sum256(image)
	return fmt.Sprintf("pose:analysis:%s:%s", exercise, hex.EncodeToString(sum[:]))
}

func (r *redisCache) Get(ctx context.Context, key string) (*entity.AnalysisResult, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	} else if err != nil {
		log.Warn(log.Fields{"key": key, "error": err.Error()}, "Error reading cached analysis")
		return nil, false
	}

	var result entity.AnalysisResult
	if err := jsoniter.Unmarshal(val, &result); err != nil {
		log.Warn(log.Fields{"key": key, "error": err.Error()}, "Discarding malformed cached analysis")
		return nil, false
	}

	restore(&result)

	log.Debug(log.Fields{"key": key}, "Analysis cache hit")
	return &result, true
}

// restore brings a decoded result back to the shape the scorer produced:
// landmark names are not serialised and check details decode as plain maps.
func restore(result *entity.AnalysisResult) {
	for name, lm := range result.Landmarks {
		lm.Name = name
		result.Landmarks[name] = lm
	}

	for name, v := range result.Details {
		m, ok := v.(map[string]interface{})
		if !ok || len(m) != 2 {
			continue
		}
		diff, okDiff := m["height_difference"].(float64)
		status, okStatus := m["status"].(string)
		if okDiff && okStatus {
			result.Details[name] = entity.CheckDetail{HeightDifference: diff, Status: status}
		}
	}
}

func (r *redisCache) Set(ctx context.Context, key string, result *entity.AnalysisResult) error {
	data, err := jsoniter.Marshal(result)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		log.Warn(log.Fields{"key": key, "error": err.Error()}, "Error caching analysis")
		return err
	}
	return nil
}

func (r *redisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
