package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bugscan/scanner"
	"github.com/redis/go-redis/v9"
)

// JobStore defines persistence operations for scan jobs.
type JobStore interface {
	CreateJob(ctx context.Context, job *ScanJob) error
	GetJob(ctx context.Context, id string) (*ScanJob, error)
	UpdateJob(ctx context.Context, job *ScanJob) error
	AppendLine(ctx context.Context, id, line string) error
	ClearLines(ctx context.Context, id string) error
	PushToQueue(ctx context.Context, id string) error
	PopFromQueue(ctx context.Context) (string, error)
}

// ErrJobNotFound indicates the requested job doesn't exist in the store.
var ErrJobNotFound = errors.New("job not found")

const (
	queueKey   = "scans:queue"
	popTimeout = time.Second
)

// RedisStore implements JobStore using Redis as backend. Jobs live in a hash,
// their verdict lines in a list next to it.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed job store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func jobKey(id string) string {
	return fmt.Sprintf("scan:%s", id)
}

func linesKey(id string) string {
	return fmt.Sprintf("scan:%s:lines", id)
}

// CreateJob persists a new job.
func (s *RedisStore) CreateJob(ctx context.Context, job *ScanJob) error {
	data, err := serializeJob(job)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, jobKey(job.ID), data).Err()
}

// GetJob retrieves a job and its verdict lines.
func (s *RedisStore) GetJob(ctx context.Context, id string) (*ScanJob, error) {
	res, err := s.client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrJobNotFound
	}
	job, err := deserializeJob(res)
	if err != nil {
		return nil, err
	}

	lines, err := s.client.LRange(ctx, linesKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	job.Lines = lines
	return job, nil
}

// UpdateJob overwrites the job hash. Lines are managed by AppendLine.
func (s *RedisStore) UpdateJob(ctx context.Context, job *ScanJob) error {
	data, err := serializeJob(job)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, jobKey(job.ID), data).Err()
}

// AppendLine records one verdict line for a job.
func (s *RedisStore) AppendLine(ctx context.Context, id, line string) error {
	return s.client.RPush(ctx, linesKey(id), line).Err()
}

// ClearLines drops the lines of a job, used when a job is restarted.
func (s *RedisStore) ClearLines(ctx context.Context, id string) error {
	return s.client.Del(ctx, linesKey(id)).Err()
}

// PushToQueue enqueues a job ID for workers to process.
func (s *RedisStore) PushToQueue(ctx context.Context, id string) error {
	return s.client.LPush(ctx, queueKey, id).Err()
}

// PopFromQueue blocks until a job ID is available or ctx ends. BRPOP is
// issued with a short timeout so a cancelled ctx is noticed between polls.
func (s *RedisStore) PopFromQueue(ctx context.Context) (string, error) {
	for {
		res, err := s.client.BRPop(ctx, popTimeout, queueKey).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if err != nil {
			return "", err
		}
		if len(res) != 2 {
			return "", errors.New("unexpected response size from BRPOP")
		}
		return res[1], nil
	}
}

func serializeJob(job *ScanJob) (map[string]interface{}, error) {
	hosts, err := json.Marshal(job.Hosts)
	if err != nil {
		return nil, err
	}
	ports, err := json.Marshal(job.Ports)
	if err != nil {
		return nil, err
	}
	methods, err := json.Marshal(job.Methods)
	if err != nil {
		return nil, err
	}

	var statsData string
	if job.Stats != nil {
		encoded, err := json.Marshal(job.Stats)
		if err != nil {
			return nil, err
		}
		statsData = string(encoded)
	}

	completedAt := ""
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.Format(time.RFC3339Nano)
	}

	return map[string]interface{}{
		"id":           job.ID,
		"status":       job.Status,
		"hosts":        string(hosts),
		"cidr":         job.CIDR,
		"ports":        string(ports),
		"methods":      string(methods),
		"mode":         job.Mode,
		"stats":        statsData,
		"created_at":   job.CreatedAt.Format(time.RFC3339Nano),
		"completed_at": completedAt,
		"error":        job.Error,
	}, nil
}

func deserializeJob(data map[string]string) (*ScanJob, error) {
	job := &ScanJob{
		ID:     data["id"],
		Status: data["status"],
		CIDR:   data["cidr"],
		Mode:   data["mode"],
		Error:  data["error"],
	}

	for field, dst := range map[string]any{
		"hosts":   &job.Hosts,
		"ports":   &job.Ports,
		"methods": &job.Methods,
	} {
		if raw := data[field]; raw != "" {
			if err := json.Unmarshal([]byte(raw), dst); err != nil {
				return nil, fmt.Errorf("decode %s: %w", field, err)
			}
		}
	}

	if raw := data["stats"]; raw != "" {
		var stats scanner.Stats
		if err := json.Unmarshal([]byte(raw), &stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		job.Stats = &stats
	}

	if raw := data["created_at"]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, err
		}
		job.CreatedAt = t
	}

	if raw := data["completed_at"]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, err
		}
		job.CompletedAt = &t
	}

	return job, nil
}
