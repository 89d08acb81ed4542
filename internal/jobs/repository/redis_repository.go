package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/framefarm/framefarm/internal/jobs"
)

type jobRedisRepo struct {
	redisClient *redis.Client
	basePrefix  string
}

// NewJobRedisRepo caches per-task render progress in a Redis hash per job.
// The cache is advisory only; the file store stays the single authority.
func NewJobRedisRepo(redisClient *redis.Client, basePrefix string) jobs.CacheRepository {
	if basePrefix == "" {
		basePrefix = "job:progress:"
	}
	return &jobRedisRepo{
		redisClient: redisClient,
		basePrefix:  basePrefix,
	}
}

func (r *jobRedisRepo) SetProgress(ctx context.Context, jobID, taskID string, progress float64) error {
	if err := r.redisClient.HSet(ctx, r.basePrefix+jobID, taskID, progress).Err(); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

func (r *jobRedisRepo) GetProgress(ctx context.Context, jobID string) (map[string]float64, error) {
	fields, err := r.redisClient.HGetAll(ctx, r.basePrefix+jobID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	out := make(map[string]float64, len(fields))
	for taskID, raw := range fields {
		progress, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		out[taskID] = progress
	}
	return out, nil
}
