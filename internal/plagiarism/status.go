package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/codesim/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statusKeyPrefix = "codesim_analysis_status:"
	statusTTL       = 12 * time.Hour
)

var validSteps = map[models.Step]bool{
	models.StepIdle:      true,
	models.StepInitiated: true,
	models.StepLoading:   true,
	models.StepComparing: true,
	models.StepDetecting: true,
	models.StepCompleted: true,
	models.StepFailed:    true,
}

// StatusTracker stores the current step of an assignment's analysis in Redis
type StatusTracker struct {
	client redis.Cmdable
}

func NewStatusTracker(client redis.Cmdable) *StatusTracker {
	return &StatusTracker{client: client}
}

func (t *StatusTracker) Update(ctx context.Context, assignmentID string, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	key := statusKeyPrefix + assignmentID
	if err := t.client.Set(ctx, key, string(step), statusTTL).Err(); err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("assignmentId", assignmentID).
			Str("redisKey", key).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("assignmentId", assignmentID).
		Msg("Status updated")

	return nil
}

// Get returns the stored step, or StepIdle when nothing has run recently
func (t *StatusTracker) Get(ctx context.Context, assignmentID string) (models.Step, error) {
	value, err := t.client.Get(ctx, statusKeyPrefix+assignmentID).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}

	return models.Step(value), nil
}
