package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RishiKendai/codesim/internal/ingest"
	"github.com/RishiKendai/codesim/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamRecorder struct {
	deadLetterRecorder
	acked []string
}

func (r *streamRecorder) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	r.acked = append(r.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

type processorFunc func(ctx context.Context, file *models.SubmissionFile) error

func (f processorFunc) ProcessSubmission(ctx context.Context, file *models.SubmissionFile) error {
	return f(ctx, file)
}

func newTestConsumer(recorder *streamRecorder, processor Processor) *Consumer {
	retry := NewRetryHandler(recorder, "codesim:dlq")
	retry.baseDelay = time.Millisecond
	return NewConsumer(recorder, "codesim:submissions", "codesim:group", "test", processor, retry, time.Hour)
}

func message(id string, values map[string]interface{}) *redis.XMessage {
	return &redis.XMessage{ID: id, Values: values}
}

func TestConsumerProcessMessage(t *testing.T) {
	t.Parallel()

	valid := map[string]interface{}{
		"assignmentId": "hw1",
		"studentId":    "alice",
		"path":         "main.go",
		"content":      "package main",
	}

	t.Run("stored and acknowledged", func(t *testing.T) {
		t.Parallel()
		recorder := &streamRecorder{}
		var stored *models.SubmissionFile
		consumer := newTestConsumer(recorder, processorFunc(func(_ context.Context, file *models.SubmissionFile) error {
			stored = file
			return nil
		}))

		require.NoError(t, consumer.processMessage(context.Background(), message("1-0", valid)))
		require.NotNil(t, stored)
		assert.Equal(t, "alice", stored.StudentID)
		assert.Equal(t, []string{"1-0"}, recorder.acked)
		assert.Empty(t, recorder.values)
	})

	t.Run("unparseable message acknowledged without processing", func(t *testing.T) {
		t.Parallel()
		recorder := &streamRecorder{}
		called := false
		consumer := newTestConsumer(recorder, processorFunc(func(context.Context, *models.SubmissionFile) error {
			called = true
			return nil
		}))

		err := consumer.processMessage(context.Background(), message("2-0", map[string]interface{}{"path": "x"}))
		assert.Error(t, err)
		assert.False(t, called)
		assert.Equal(t, []string{"2-0"}, recorder.acked)
	})

	t.Run("invalid submission dead-lettered once", func(t *testing.T) {
		t.Parallel()
		recorder := &streamRecorder{}
		attempts := 0
		consumer := newTestConsumer(recorder, processorFunc(func(context.Context, *models.SubmissionFile) error {
			attempts++
			return ingest.ErrInvalidSubmission
		}))

		err := consumer.processMessage(context.Background(), message("3-0", valid))
		assert.True(t, errors.Is(err, ingest.ErrInvalidSubmission))
		assert.Equal(t, 1, attempts)
		assert.Len(t, recorder.values, 1)
		assert.Equal(t, []string{"3-0"}, recorder.acked)
	})
}
