package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/codesim/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PermanentError marks a failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

type RetryHandler struct {
	client        redis.Cmdable
	deadLetterKey string
	maxAttempts   int
	baseDelay     time.Duration
}

func NewRetryHandler(client redis.Cmdable, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxAttempts:   3,
		baseDelay:     500 * time.Millisecond,
	}
}

// RetryWithBackoff runs fn up to maxAttempts times, doubling the delay after
// each failure. When every attempt fails, or fn returns a PermanentError,
// the message is pushed to the dead-letter list and the last error returned.
func (r *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var err error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			break
		}

		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int("attempt", attempt).
			Msg("Processing failed")

		if attempt == r.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	if dlqErr := r.sendToDeadLetter(ctx, messageID, fields, err); dlqErr != nil {
		log.Error().Err(dlqErr).Str("message_id", messageID).Msg("Failed to push message to dead letter queue")
	}
	return err
}

type deadLetter struct {
	MessageID string                 `json:"messageId"`
	Fields    map[string]interface{} `json:"fields"`
	Error     string                 `json:"error"`
	FailedAt  time.Time              `json:"failedAt"`
}

func (r *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error) error {
	payload, err := json.Marshal(deadLetter{
		MessageID: messageID,
		Fields:    fields,
		Error:     cause.Error(),
		FailedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode dead letter: %w", err)
	}

	if err := r.client.LPush(ctx, r.deadLetterKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push dead letter: %w", err)
	}
	metrics.DeadLetterCount.Inc()

	log.Warn().
		Str("message_id", messageID).
		Str("dead_letter_key", r.deadLetterKey).
		Msg("Message moved to dead letter queue")

	return nil
}
