package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
)

// ActivityRecorder abstracts the activity journal so use cases stay storage-agnostic.
type ActivityRecorder interface {
	Record(ctx context.Context, activity domain.Activity) error
}

// RecordActivity reports a completed mutation. Journal failures are logged and
// never change the outcome of the operation that produced them.
func RecordActivity(ctx context.Context, recorder ActivityRecorder, logger *zap.Logger, activity domain.Activity) {
	if recorder == nil {
		return
	}
	if activity.OccurredAt.IsZero() {
		activity.OccurredAt = time.Now().UTC()
	}
	if err := recorder.Record(ctx, activity); err != nil && logger != nil {
		logger.Warn("failed to record activity",
			zap.String("entity", activity.Entity),
			zap.String("action", activity.Action),
			zap.String("entity_id", activity.EntityID),
			zap.Error(err),
		)
	}
}
